package domain

// Theme is the two-value presentation theme.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle flips between the two themes. Unrecognized values flip to dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ViewState is a read-only snapshot of everything the presentational surfaces
// render. There is a single process-wide instance, owned and mutated only by
// the view-state controller.
type ViewState struct {
	Events      []SeismicEvent       `json:"events"`
	Loading     bool                 `json:"loading"`
	Error       string               `json:"error,omitempty"`
	Selected    *SeismicEvent        `json:"selected,omitempty"`
	SearchText  string               `json:"search_text"`
	Suggestions []LocationSuggestion `json:"suggestions"`
	Theme       Theme                `json:"theme"`
}

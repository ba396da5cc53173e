package models

// AppState holds the application state
type AppState struct {
	Width    int
	Height   int
	ViewMode ViewMode

	// Report session
	ReportName string
	OrgIDs     []string
	FetchState FetchState
}

// ViewMode identifies the current view
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	FilterMode
	SortMode
	QueryMode
	HistoryMode
)

// FetchState tracks the remote report request
type FetchState int

const (
	FetchIdle FetchState = iota
	FetchLoading
	FetchUpdating
	FetchDone
	FetchError
)

func (s FetchState) String() string {
	switch s {
	case FetchLoading:
		return "loading"
	case FetchUpdating:
		return "updating"
	case FetchDone:
		return "done"
	case FetchError:
		return "error"
	default:
		return "idle"
	}
}

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:    80,
		Height:   24,
		ViewMode: NormalMode,
	}
}

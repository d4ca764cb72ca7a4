package candidates

// ListPageData drives the candidate index page and its table fragment.
type ListPageData struct {
	Title      string
	BasePath   string
	TableURL   string
	Search     string
	Stage      string
	StageNames []StageOption
	Rows       []Row
	Total      int
	Page       int
	PrevURL    string
	NextURL    string
	Recent     []RecentLink
	Error      string
}

// Row is one candidate in the table.
type Row struct {
	ID        int64
	Name      string
	Email     string
	Headline  string
	DetailURL string
	Stages    []StageBadge
	Updated   string
}

// RecentLink points at a recently opened candidate.
type RecentLink struct {
	Label string
	URL   string
}

// StageBadge renders a pipeline stage with its colour.
type StageBadge struct {
	Name  string
	Style string
}

// StageOption is one entry in a stage selector.
type StageOption struct {
	Name     string
	Style    string
	Selected bool
}

// DetailPageData drives the candidate detail page.
type DetailPageData struct {
	Name        string
	Email       string
	Headline    string
	Updated     string
	BackURL     string
	Panels      []PanelData
	ActivityURL string
}

// Panel states as rendered.
const (
	PanelViewing    = "viewing"
	PanelEditing    = "editing"
	PanelCommitting = "committing"
)

// Field kinds understood by the panel renderer.
const (
	FieldText     = "text"
	FieldDate     = "date"
	FieldCheckbox = "checkbox"
	FieldStage    = "stage"
)

// PanelData is the rendering state of one editable list attribute.
type PanelData struct {
	Attribute string
	Title     string
	State     string
	CanEdit   bool
	// Polling is set while any commit of the panel is unresolved; the fragment
	// then re-requests itself until the outcome is visible.
	Polling    bool
	Generation uint64
	Columns    []Column
	Rows       []PanelRow
	EmptyText  string
	Error      string

	URL       string
	EditURL   string
	CancelURL string
	SaveURL   string
	AppendURL string
	RemoveURL string
}

// Column describes one field of a row.
type Column struct {
	Field string
	Label string
	Kind  string
}

// PanelRow is one element of the displayed or draft list.
type PanelRow struct {
	Key      string
	Cells    []Cell
	StageURL string
}

// Cell is the value of one field in one row.
type Cell struct {
	Field   string
	Kind    string
	Value   string
	Checked bool
	Style   string
	Options []StageOption
}

// ActivityData drives the activity feed fragment.
type ActivityData struct {
	Groups []ActivityGroup
	Error  string
}

// ActivityGroup is the entries of one calendar day.
type ActivityGroup struct {
	Date    string
	Label   string
	Entries []ActivityEntry
}

// ActivityEntry is one activity or message in the feed.
type ActivityEntry struct {
	Kind    string
	Actor   string
	Summary string
	Time    string
}

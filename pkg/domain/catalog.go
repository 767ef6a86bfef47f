package domain

// ServiceTypes are the selectable services.
var ServiceTypes = []string{
	"Passport Application",
	"Driver's License Renewal",
	"Social Security Card",
	"Birth Certificate Request",
	"Marriage Certificate",
	"Property Deed",
	"Business License",
	"Tax Document Request",
	"Voter Registration",
	"Other Government Document",
}

// Regions are the selectable states and territories.
var Regions = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut", "Delaware", "Florida", "Georgia",
	"Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey",
	"New Mexico", "New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania", "Rhode Island", "South Carolina",
	"South Dakota", "Tennessee", "Texas", "Utah", "Vermont", "Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
	"District of Columbia", "American Samoa", "Guam", "Northern Mariana Islands", "Puerto Rico", "U.S. Virgin Islands",
}

const (
	UrgencyStandard  = "standard"
	UrgencyExpedited = "expedited"
	UrgencyUrgent    = "urgent"
)

// UrgencyLevels are the selectable urgency values.
var UrgencyLevels = []string{UrgencyStandard, UrgencyExpedited, UrgencyUrgent}

// Catalog groups the fixed option lists for hosts.
type Catalog struct {
	ServiceTypes  []string `json:"serviceTypes"`
	Regions       []string `json:"regions"`
	UrgencyLevels []string `json:"urgencyLevels"`
	Steps         []string `json:"steps"`
}

// DefaultCatalog returns copies of the fixed lists.
func DefaultCatalog() Catalog {
	steps := make([]string, 0, TotalSteps)
	for _, s := range Steps() {
		steps = append(steps, s.String())
	}
	return Catalog{
		ServiceTypes:  append([]string(nil), ServiceTypes...),
		Regions:       append([]string(nil), Regions...),
		UrgencyLevels: append([]string(nil), UrgencyLevels...),
		Steps:         steps,
	}
}

// Contains reports whether v is one of options.
func Contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

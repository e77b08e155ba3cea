// Package types holds the records exchanged between extraction, scoring,
// recommendation and optimization.
package types

// CompanyProfile describes the hiring company.
type CompanyProfile struct {
	CompanyName string `json:"companyName"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
}

// JobLocation is where the role is based.
type JobLocation struct {
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	RemoteStatus string `json:"remoteStatus"`
}

// Qualifications splits requirements into must-have and nice-to-have lists.
type Qualifications struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
}

type CompensationAndBenefits struct {
	SalaryRange string   `json:"salaryRange"`
	Benefits    []string `json:"benefits"`
}

type ApplicationInfo struct {
	HowToApply   string `json:"howToApply"`
	ApplyLink    string `json:"applyLink"`
	ContactEmail string `json:"contactEmail,omitempty"`
}

// Employment types accepted in JobRecord.EmploymentType.
var EmploymentTypes = []string{
	"Full-time", "Full time", "Part-time", "Part time",
	"Contract", "Internship", "Temporary", "Not Specified",
}

// JobRecord is the structured view of a job posting.
type JobRecord struct {
	JobID                   string                  `json:"jobId"`
	JobTitle                string                  `json:"jobTitle"`
	CompanyProfile          CompanyProfile          `json:"companyProfile"`
	Location                JobLocation             `json:"location"`
	DatePosted              string                  `json:"datePosted"`
	EmploymentType          string                  `json:"employmentType"`
	JobSummary              string                  `json:"jobSummary"`
	KeyResponsibilities     []string                `json:"keyResponsibilities"`
	Qualifications          Qualifications          `json:"qualifications"`
	CompensationAndBenefits CompensationAndBenefits `json:"compensationAndBenefits"`
	ApplicationInfo         ApplicationInfo         `json:"applicationInfo"`
	ExtractedKeywords       []string                `json:"extractedKeywords"`
}

type PersonLocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type PersonalData struct {
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	LinkedIn  string         `json:"linkedin"`
	Portfolio string         `json:"portfolio"`
	Location  PersonLocation `json:"location"`
}

type ResumeExperience struct {
	JobTitle         string   `json:"jobTitle"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Description      []string `json:"description"`
	TechnologiesUsed []string `json:"technologiesUsed"`
}

type ResumeProject struct {
	ProjectName      string   `json:"projectName"`
	Description      string   `json:"description"`
	TechnologiesUsed []string `json:"technologiesUsed"`
	Link             string   `json:"link"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
}

type ResumeSkill struct {
	Category  string `json:"category"`
	SkillName string `json:"skillName"`
}

// ResearchWork fields are nullable in model output.
type ResearchWork struct {
	Title       *string `json:"title"`
	Publication *string `json:"publication"`
	Date        *string `json:"date"`
	Link        *string `json:"link"`
	Description *string `json:"description"`
}

type ResumeEducation struct {
	Institution  string  `json:"institution"`
	Degree       string  `json:"degree"`
	FieldOfStudy *string `json:"fieldOfStudy"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	Grade        string  `json:"grade"`
	Description  string  `json:"description"`
}

// ResumeRecord is the structured snapshot of a candidate's portfolio.
// Field names follow the extraction schema verbatim.
type ResumeRecord struct {
	UUID              string             `json:"UUID"`
	PersonalData      PersonalData       `json:"Personal Data"`
	Experiences       []ResumeExperience `json:"Experiences"`
	Projects          []ResumeProject    `json:"Projects"`
	Skills            []ResumeSkill      `json:"Skills"`
	ResearchWork      []ResearchWork     `json:"Research Work"`
	Achievements      []string           `json:"Achievements"`
	Education         []ResumeEducation  `json:"Education"`
	ExtractedKeywords []string           `json:"Extracted Keywords"`
}

// SkillNames returns the skill names in resume order.
func (r *ResumeRecord) SkillNames() []string {
	names := make([]string, 0, len(r.Skills))
	for _, s := range r.Skills {
		names = append(names, s.SkillName)
	}
	return names
}

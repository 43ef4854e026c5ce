package actions

import (
	"strings"

	"github.com/wolvina/wolvina-go/internal/wolvina/tracker"
)

// Slot names shared with the assistant domain.
const (
	SlotStudentName        = "student_name"
	SlotCurrentMajor       = "current_major"
	SlotYearOfStudy        = "year_of_study"
	SlotCareerInterest     = "career_interest"
	SlotGPA                = "gpa"
	SlotHasInternship      = "has_internship"
	SlotVisaStatus         = "visa_status"
	SlotLastSummary        = "last_career_summary"
	SlotLastAdviceFull     = "last_career_advice_full"
	SlotLastAdviceID       = "last_career_advice_id"
	SlotAdviceHistory      = "advice_history"
	SlotFollowupQuestion   = "followup_question"
	SlotNeedsClarification = "needs_interest_clarification"
	SlotRAGResultFound     = "rag_result_found"
	SlotUserQuery          = "user_query"
)

const notSpecified = "not specified"

// Profile is the student information used to ground advice prompts.
type Profile struct {
	Name       string
	Major      string
	Year       string
	Interest   string
	GPA        string
	Internship string // Yes, No or "not specified"
	Visa       string
}

// ProfileFromTracker reads the profile slots, substituting readable
// defaults for missing values.
func ProfileFromTracker(t *tracker.Tracker) Profile {
	internship := notSpecified
	if v := t.SlotBool(SlotHasInternship); v != nil {
		internship = "No"
		if *v {
			internship = "Yes"
		}
	}
	return Profile{
		Name:       t.SlotString(SlotStudentName, "the student"),
		Major:      t.SlotString(SlotCurrentMajor, notSpecified),
		Year:       t.SlotString(SlotYearOfStudy, notSpecified),
		Interest:   t.SlotString(SlotCareerInterest, notSpecified),
		GPA:        t.SlotString(SlotGPA, "not provided"),
		Internship: internship,
		Visa:       t.SlotString(SlotVisaStatus, notSpecified),
	}
}

// HasInterest reports whether a usable career interest is known.
func (p Profile) HasInterest() bool {
	i := strings.TrimSpace(strings.ToLower(p.Interest))
	return i != "" && i != notSpecified && i != "not_specified"
}

// hasInternship interprets the internship slot as a yes/no flag.
func hasInternship(t *tracker.Tracker) bool {
	v := t.SlotBool(SlotHasInternship)
	return v != nil && *v
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

package smoke

import (
	"fmt"
	"strings"

	"github.com/thesyncim/edusmoke/pkg/browser"
)

// Paths of the EduApp frontend routes the scenarios visit.
const (
	PathRegister  = "/register"
	PathLogin     = "/login"
	PathLogout    = "/logout"
	PathNewCourse = "/admin/courses/new"
	PathCourses   = "/courses"
)

// Form fields, addressed by element id.
var (
	FieldUsername        = browser.ByID("username")
	FieldEmail           = browser.ByID("email")
	FieldPhone           = browser.ByID("phone")
	FieldPassword        = browser.ByID("password")
	FieldConfirmPassword = browser.ByID("confirmPassword")

	FieldTitle       = browser.ByID("title")
	FieldDescription = browser.ByID("description")
	FieldCategory    = browser.ByID("category")
	FieldLevel       = browser.ByID("level")
	FieldPublished   = browser.ByID("published")
)

// Buttons and confirmation text.
var (
	SubmitButton       = browser.ByXPath("//button[@type='submit']")
	CreateCourseButton = browser.ByXPath("//button[contains(text(), 'Create Course')]")

	RegistrationSuccess = browser.ByXPath("//div[contains(text(), 'Registration successful')]")
	// RegistrationOutcome matches the success banner, the student dashboard a
	// successful signup redirects to, or an error alert, whichever comes first.
	RegistrationOutcome = browser.ByXPath("//div[contains(text(), 'Registration successful')] | //h1[contains(text(), 'Dashboard')] | //*[@role='alert']")
	DashboardHeading    = browser.ByXPath("//h1[contains(text(), 'Dashboard')]")
	CourseCreated       = browser.ByXPath("//div[contains(text(), 'Course created successfully')]")

	CourseGrid      = browser.ByXPath("//div[contains(@class, 'grid')]")
	CourseCard      = browser.ByXPath("//div[contains(@class, 'bg-gray-100')]")
	FirstCourseCard = browser.ByXPath("(//div[contains(@class, 'bg-gray-100')])[1]")
	CourseHeading   = browser.ByXPath("//h1")
	EnrollButton    = browser.ByXPath("//button[contains(text(), 'Enroll') or contains(text(), 'Continue Learning')]")
)

// Substrings of RegistrationOutcome that mark a successful signup.
const (
	registrationSuccessText = "Registration successful"
	dashboardText           = "Dashboard"
)

// enrollText marks an enroll button that has not been used yet.
const enrollText = "Enroll"

// DropdownOption matches the option of a custom select rendering label.
func DropdownOption(label string) browser.Locator {
	return browser.ByXPath(fmt.Sprintf("//div[contains(text(), %s)]", xpathLiteral(label)))
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts)-1)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

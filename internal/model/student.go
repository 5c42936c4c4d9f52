// Package model defines the data structures used throughout the application.
package model

import "time"

// Status is the enrolment state shown on a student's card.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Student is a student profile record.
//
// Optional string fields use "" for "not set". The JSON names match what the
// profile pages already consume, including "_id" for the primary key.
//
// EditPassword is only populated on the record returned by Create. Every
// other read path clears it before the record leaves the service layer.
type Student struct {
	ID string `json:"_id" db:"id"`

	// Profile
	Name           string `json:"name"           db:"name"`
	Email          string `json:"email"          db:"email"`
	University     string `json:"university"     db:"university"`
	Faculty        string `json:"faculty"        db:"faculty"`
	Major          string `json:"major"          db:"major"`
	UniversityID   string `json:"universityId"   db:"university_id"`
	AcademicYear   string `json:"academicYear"   db:"academic_year"`
	EnrollmentDate string `json:"enrollmentDate" db:"enrollment_date"`
	ValidUntil     string `json:"validUntil"     db:"valid_until"`
	Status         Status `json:"status"         db:"status"`

	// Media (hosted URLs)
	ProfileImage           string `json:"profileImage"           db:"profile_image"`
	OfficialDocumentsImage string `json:"officialDocumentsImage" db:"official_documents_image"`
	NationalIDImage        string `json:"nationalIdImage"        db:"national_id_image"`
	UniversityCardImage    string `json:"universityCardImage"    db:"university_card_image"`
	ScheduleImage          string `json:"scheduleImage"          db:"schedule_image"`
	ScheduleImageFileName  string `json:"scheduleImageFileName"  db:"schedule_image_file_name"`
	Certificate1Image      string `json:"certificate1Image"      db:"certificate1_image"`

	// Social and contact
	GitHub    string `json:"github"    db:"github"`
	LinkedIn  string `json:"linkedin"  db:"linkedin"`
	WhatsApp  string `json:"whatsapp"  db:"whatsapp"`
	Instagram string `json:"instagram" db:"instagram"`
	TikTok    string `json:"tiktok"    db:"tiktok"`
	YouTube   string `json:"youtube"   db:"youtube"`
	Spotify   string `json:"spotify"   db:"spotify"`
	Facebook  string `json:"facebook"  db:"facebook"`
	X         string `json:"x"         db:"x"`
	Threads   string `json:"threads"   db:"threads"`
	Snapchat  string `json:"snapchat"  db:"snapchat"`
	Instapay  string `json:"instapay"  db:"instapay"`
	Phone     string `json:"phone"     db:"phone"`

	// CV
	CVURL      string `json:"cvUrl"      db:"cv_url"`
	CVFileName string `json:"cvFileName" db:"cv_file_name"`

	// Access. PublicLink and PrivateLink are derived once at creation.
	PublicLink   string `json:"publicLink"             db:"public_link"`
	PrivateLink  string `json:"privateLink"            db:"private_link"`
	EditPassword string `json:"editPassword,omitempty" db:"edit_password"`

	// Analytics
	VisitCount      int64      `json:"visitCount"      db:"visit_count"`
	LastViewed      *time.Time `json:"lastViewed"      db:"last_viewed"`
	LinkedInClicks  int64      `json:"linkedinClicks"  db:"linkedin_clicks"`
	GitHubClicks    int64      `json:"githubClicks"    db:"github_clicks"`
	InstagramClicks int64      `json:"instagramClicks" db:"instagram_clicks"`
	TikTokClicks    int64      `json:"tiktokClicks"    db:"tiktok_clicks"`
	YouTubeClicks   int64      `json:"youtubeClicks"   db:"youtube_clicks"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Public returns a copy of s without the edit secret.
func (s Student) Public() Student {
	s.EditPassword = ""
	return s
}

package model

import (
	"encoding/json"
	"fmt"

	"github.com/sakif/student-profiles/internal/apperror"
)

// Field describes one caller-editable text column of a student record.
//
// The same table drives JSON patch decoding, SQL column lists and row
// scanning, so a new profile field is added in exactly one place.
type Field struct {
	JSON   string // name in request and response bodies
	Column string // column in the students table
	ptr    func(s *Student) *string
}

// Ptr returns a pointer to the field's value inside s.
func (f Field) Ptr(s *Student) *string {
	return f.ptr(s)
}

// EditableFields lists every text field a caller may set on create or update.
// Identity, derived links, analytics counters and timestamps are absent on
// purpose: the store owns them.
var EditableFields = []Field{
	{"name", "name", func(s *Student) *string { return &s.Name }},
	{"email", "email", func(s *Student) *string { return &s.Email }},
	{"university", "university", func(s *Student) *string { return &s.University }},
	{"faculty", "faculty", func(s *Student) *string { return &s.Faculty }},
	{"major", "major", func(s *Student) *string { return &s.Major }},
	{"universityId", "university_id", func(s *Student) *string { return &s.UniversityID }},
	{"academicYear", "academic_year", func(s *Student) *string { return &s.AcademicYear }},
	{"enrollmentDate", "enrollment_date", func(s *Student) *string { return &s.EnrollmentDate }},
	{"validUntil", "valid_until", func(s *Student) *string { return &s.ValidUntil }},
	{"status", "status", func(s *Student) *string { return (*string)(&s.Status) }},

	{"profileImage", "profile_image", func(s *Student) *string { return &s.ProfileImage }},
	{"officialDocumentsImage", "official_documents_image", func(s *Student) *string { return &s.OfficialDocumentsImage }},
	{"nationalIdImage", "national_id_image", func(s *Student) *string { return &s.NationalIDImage }},
	{"universityCardImage", "university_card_image", func(s *Student) *string { return &s.UniversityCardImage }},
	{"scheduleImage", "schedule_image", func(s *Student) *string { return &s.ScheduleImage }},
	{"scheduleImageFileName", "schedule_image_file_name", func(s *Student) *string { return &s.ScheduleImageFileName }},
	{"certificate1Image", "certificate1_image", func(s *Student) *string { return &s.Certificate1Image }},

	{"github", "github", func(s *Student) *string { return &s.GitHub }},
	{"linkedin", "linkedin", func(s *Student) *string { return &s.LinkedIn }},
	{"whatsapp", "whatsapp", func(s *Student) *string { return &s.WhatsApp }},
	{"instagram", "instagram", func(s *Student) *string { return &s.Instagram }},
	{"tiktok", "tiktok", func(s *Student) *string { return &s.TikTok }},
	{"youtube", "youtube", func(s *Student) *string { return &s.YouTube }},
	{"spotify", "spotify", func(s *Student) *string { return &s.Spotify }},
	{"facebook", "facebook", func(s *Student) *string { return &s.Facebook }},
	{"x", "x", func(s *Student) *string { return &s.X }},
	{"threads", "threads", func(s *Student) *string { return &s.Threads }},
	{"snapchat", "snapchat", func(s *Student) *string { return &s.Snapchat }},
	{"instapay", "instapay", func(s *Student) *string { return &s.Instapay }},
	{"phone", "phone", func(s *Student) *string { return &s.Phone }},

	{"cvUrl", "cv_url", func(s *Student) *string { return &s.CVURL }},
	{"cvFileName", "cv_file_name", func(s *Student) *string { return &s.CVFileName }},

	{"editPassword", "edit_password", func(s *Student) *string { return &s.EditPassword }},
}

var fieldsByJSON = func() map[string]Field {
	m := make(map[string]Field, len(EditableFields))
	for _, f := range EditableFields {
		m[f.JSON] = f
	}
	return m
}()

// Patch is a partial set of editable fields keyed by JSON name.
type Patch map[string]string

// DecodePatch parses a JSON object into a Patch.
//
// Keys outside EditableFields are dropped, which covers "_id", "id",
// "createdAt", "updatedAt", the derived links and every counter. A null value
// clears the field. Any other non-string value is a validation error.
func DecodePatch(body []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperror.ValidationFailed("body", "Invalid JSON body")
	}

	p := make(Patch, len(raw))
	for key, value := range raw {
		if _, ok := fieldsByJSON[key]; !ok {
			continue
		}
		if string(value) == "null" {
			p[key] = ""
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("%s must be a string", key))
		}
		p[key] = s
	}
	return p, nil
}

// Has reports whether the patch sets the given JSON field.
func (p Patch) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Apply copies the patch into s.
func (p Patch) Apply(s *Student) {
	for key, value := range p {
		*fieldsByJSON[key].Ptr(s) = value
	}
}

// Fields returns the patched fields in EditableFields order, so generated SQL
// is deterministic.
func (p Patch) Fields() []Field {
	out := make([]Field, 0, len(p))
	for _, f := range EditableFields {
		if _, ok := p[f.JSON]; ok {
			out = append(out, f)
		}
	}
	return out
}

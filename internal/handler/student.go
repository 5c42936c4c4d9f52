package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/auth"
	"github.com/sakif/student-profiles/internal/model"
	"github.com/sakif/student-profiles/internal/service"
)

// maxJSONBody caps student create and update bodies.
const maxJSONBody = 1 << 20

// EditPasswordHeader carries the current edit secret on an update that
// changes it.
const EditPasswordHeader = "X-Edit-Password"

// StudentHandler exposes the student record facade over HTTP.
//
// The {id} segment of every route may be a record id, a public slug, or a
// slug with "/edit" or "/links" appended; the service resolves it.
type StudentHandler struct {
	students *service.StudentService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewStudentHandler creates a StudentHandler. tokens is used to recognise an
// admin session on updates.
func NewStudentHandler(students *service.StudentService, tokens *auth.TokenService, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, tokens: tokens, logger: logger}
}

// HandleList returns every student, newest first.
//
// HTTP: GET /api/students
func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// HandleCreate creates a student. Admin only (RequireAuth on the route).
//
// HTTP: POST /api/students
// REQUEST BODY: {"name": "Ada Lovelace", "email": "...", ...}
//
// The response is the only one that includes editPassword.
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	patch, err := readPatch(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	st, err := h.students.Create(r.Context(), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleGet returns one student.
//
// HTTP: GET /api/students/{id}
func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	st, err := h.students.Get(r.Context(), pathSegment(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleUpdate merges the body into the student.
//
// HTTP: PUT /api/students/{id}
//
// "_id", "createdAt", "updatedAt", the links and the counters in the body are
// ignored. A null value clears a field. Changing editPassword needs an admin
// session or the current secret in the X-Edit-Password header.
func (h *StudentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	patch, err := readPatch(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	proof := service.EditProof{CurrentPassword: r.Header.Get(EditPasswordHeader)}
	if subject, err := auth.SubjectFromRequest(r, h.tokens); err == nil && subject == auth.AdminSubject {
		proof.Admin = true
	}

	st, err := h.students.Update(r.Context(), pathSegment(r), patch, proof)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDelete removes a student.
//
// HTTP: DELETE /api/students/{id}
func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.students.Delete(r.Context(), pathSegment(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Student deleted"})
}

type verifyRequest struct {
	Password string `json:"password"`
}

// HandleVerify checks a student's edit password.
//
// HTTP: POST /api/students/{id}/verify
// REQUEST BODY: {"password": "123456789"}
func (h *StudentHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.students.VerifyEditPassword(r.Context(), pathSegment(r), req.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

func readPatch(w http.ResponseWriter, r *http.Request) (model.Patch, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.ValidationFailed("body", "Request body too large")
		}
		return nil, apperror.ValidationFailed("body", "Invalid request body")
	}
	return model.DecodePatch(body)
}

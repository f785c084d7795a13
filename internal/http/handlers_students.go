package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"tahseel/internal/core"
	"tahseel/internal/log"
)

// errorFor maps domain errors onto HTMX error responses.
func errorFor(err error) *HTMXResponseBuilder {
	switch {
	case errors.Is(err, core.ErrStudentNotFound),
		errors.Is(err, core.ErrInstallmentNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyGrade),
		errors.Is(err, core.ErrEmptyAcademicYear),
		errors.Is(err, core.ErrEmptyPaymentMethod),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrUnknownMethod),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCount),
		errors.Is(err, core.ErrInvalidDate):
		return UnprocessableEntityError(err.Error())
	default:
		return InternalServerError("Something went wrong")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	students, err := s.finance.Students(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Student roster error", log.FieldError, err)
	}

	data := struct {
		Today          string
		Students       []core.Student
		Grades         []string
		PaymentMethods []string
	}{
		Today:          time.Now().Format(core.DateLayout),
		Students:       students,
		Grades:         s.finance.Grades(),
		PaymentMethods: s.finance.PaymentMethods(),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	student := core.Student{
		Name:         FormValue(r, "name"),
		Grade:        FormValue(r, "grade"),
		AcademicYear: FormValue(r, "academic_year"),
		ParentPhone:  FormValue(r, "parent_phone"),
	}

	id, err := s.finance.AddStudent(r.Context(), student)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to enroll student",
			log.FieldError, err, log.FieldStudentName, student.Name)
		errorFor(err).Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Student enrolled (#%d): %s", id, student.Name)).
		TriggerStudentCreated(id).
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := ParseID(r.Form.Get("id"))
	if !ok {
		UnprocessableEntityError("Invalid student id").Write(w)
		return
	}

	student := core.Student{
		ID:           id,
		Name:         FormValue(r, "name"),
		Grade:        FormValue(r, "grade"),
		AcademicYear: FormValue(r, "academic_year"),
		ParentPhone:  FormValue(r, "parent_phone"),
	}

	if err := s.finance.UpdateStudent(r.Context(), student); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to update student",
			log.FieldError, err, log.FieldStudentID, id)
		errorFor(err).Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Student #%d saved", id)).
		TriggerStudentUpdated(id).
		Write(w)
}

func (s *Server) handleStudentDetails(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	id, ok := ParseID(r.URL.Query().Get("id"))
	if !ok {
		UnprocessableEntityError("Invalid student id").Write(w)
		return
	}

	student, err := s.finance.StudentDetails(r.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrStudentNotFound) {
			s.logger.ErrorContext(r.Context(), "Student details error",
				log.FieldError, err, log.FieldStudentID, id)
		}
		errorFor(err).Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "student_details.html", student); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", "student_details.html")
	}
}

// handleStudentsPartial renders the roster table. ?q= filters by name or
// phone; ?full=1 switches from the brief listing to the management view.
func (s *Server) handleStudentsPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	query := r.URL.Query().Get("q")
	full := r.URL.Query().Get("full") == "1" || query != ""

	var (
		students []core.Student
		err      error
	)
	if full {
		students, err = s.finance.SearchStudents(r.Context(), query)
	} else {
		students, err = s.finance.Students(r.Context())
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Student roster error", log.FieldError, err)
		InternalServerError("Error loading students").Write(w)
		return
	}

	data := struct {
		Full     bool
		Query    string
		Students []core.Student
	}{Full: full, Query: query, Students: students}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "students_table.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err, "template", "students_table.html")
	}
}

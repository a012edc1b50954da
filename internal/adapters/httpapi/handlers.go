package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"registrar/internal/adapters/reports"
	"registrar/internal/core"
)

type addStudentRequest struct {
	Name string `json:"name" validate:"required"`
	Age  *int   `json:"age" validate:"required,gte=0"`
}

type addCourseRequest struct {
	Title   string `json:"title" validate:"required"`
	Credits *int   `json:"credits" validate:"required"`
}

type enrollRequest struct {
	Student string `json:"student" validate:"required"`
	Course  string `json:"course" validate:"required"`
	Grade   string `json:"grade"`
}

type updateAgeRequest struct {
	Age *int `json:"age" validate:"required,gte=0"`
}

type renameGradeRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to"`
}

type exportRequest struct {
	Reports         []string        `json:"reports"`
	Formats         []string        `json:"formats" validate:"dive,oneof=json csv"`
	Args            core.ReportArgs `json:"args"`
	IncludeSnapshot bool            `json:"include_snapshot"`
}

type countResponse struct {
	Affected int `json:"affected"`
}

type reportInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Params      []string `json:"params"`
	Columns     []string `json:"columns"`
}

func (s *Server) listStudents(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.ListStudents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.ListCourses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) joinedEnrollments(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.StudentsAndCourses(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addStudent(w http.ResponseWriter, r *http.Request) {
	var req addStudentRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.AddStudent(r.Context(), req.Name, *req.Age)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) addCourse(w http.ResponseWriter, r *http.Request) {
	var req addCourseRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.AddCourse(r.Context(), req.Title, *req.Credits)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.EnrollStudent(r.Context(), req.Student, req.Course, req.Grade)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateStudentAge(w http.ResponseWriter, r *http.Request) {
	var req updateAgeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.svc.UpdateStudentAge(r.Context(), chi.URLParam(r, "name"), *req.Age)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.DeleteStudent(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteCourse(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.DeleteCourse(r.Context(), chi.URLParam(r, "title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) dropEnrollments(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.DeleteEnrollmentsForCourse(r.Context(), chi.URLParam(r, "title"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}

func (s *Server) renameGrade(w http.ResponseWriter, r *http.Request) {
	var req renameGradeRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.svc.UpdateGrade(r.Context(), req.From, req.To)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Affected: n})
}

func (s *Server) listReports(w http.ResponseWriter, _ *http.Request) {
	defs := core.Reports()
	out := make([]reportInfo, 0, len(defs))
	for _, d := range defs {
		params := d.Params
		if params == nil {
			params = []string{}
		}
		out = append(out, reportInfo{Name: d.Name, Description: d.Description, Params: params, Columns: d.Columns})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) runReport(w http.ResponseWriter, r *http.Request) {
	age, err := queryInt(r, "age")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	name := chi.URLParam(r, "name")
	if _, ok := core.LookupReport(name); !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "report " + name + " not found", Kind: "not_found"})
		return
	}
	rep, err := s.svc.RunReport(r.Context(), name, core.ReportArgs{Age: age, Title: q.Get("title"), Grade: q.Get("grade")})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) createExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		http.NotFound(w, r)
		return
	}
	var req exportRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	formats := make([]reports.Format, 0, len(req.Formats))
	for _, f := range req.Formats {
		formats = append(formats, reports.Format(f))
	}
	rec, err := s.exporter.Export(r.Context(), reports.Request{
		Reports:         req.Reports,
		Formats:         formats,
		Args:            req.Args,
		IncludeSnapshot: req.IncludeSnapshot,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		http.NotFound(w, r)
		return
	}
	infos, err := s.exporter.Artifacts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

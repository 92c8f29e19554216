package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medpro/clinic-scheduling/internal/directory"
	"github.com/medpro/clinic-scheduling/internal/scheduling"
)

// SchedulerService is the consultation surface the handlers need.
type SchedulerService interface {
	Schedule(ctx context.Context, req scheduling.ScheduleRequest) (*scheduling.AppointmentDetail, error)
	Cancel(ctx context.Context, id int64, reason string) error
	Get(ctx context.Context, id int64) (*scheduling.AppointmentDetail, error)
	List(ctx context.Context, limit, offset int) ([]scheduling.AppointmentSummary, int64, error)
}

// DirectoryService is the doctor/patient registration surface.
type DirectoryService interface {
	RegisterDoctor(ctx context.Context, d directory.Doctor) (*directory.Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*directory.Doctor, error)
	ListDoctors(ctx context.Context, limit, offset int) ([]directory.Doctor, error)
	UpdateDoctor(ctx context.Context, id int64, name, phone string) (*directory.Doctor, error)
	DeactivateDoctor(ctx context.Context, id int64) error

	RegisterPatient(ctx context.Context, p directory.Patient) (*directory.Patient, error)
	GetPatient(ctx context.Context, id int64) (*directory.Patient, error)
	ListPatients(ctx context.Context, limit, offset int) ([]directory.Patient, error)
	UpdatePatient(ctx context.Context, id int64, name, phone string, addr *directory.Address) (*directory.Patient, error)
	DeactivatePatient(ctx context.Context, id int64) error
}

type RouterConfig struct {
	Scheduler SchedulerService
	Directory DirectoryService
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Consultation endpoints
	r.Post("/consultas", scheduleConsultationHandler(cfg.Scheduler))
	r.Get("/consultas", listConsultationsHandler(cfg.Scheduler))
	r.Get("/consultas/{id}", getConsultationHandler(cfg.Scheduler))
	r.Delete("/consultas/{id}", cancelConsultationHandler(cfg.Scheduler))

	// Doctor directory
	r.Post("/medicos", registerDoctorHandler(cfg.Directory))
	r.Get("/medicos", listDoctorsHandler(cfg.Directory))
	r.Get("/medicos/{id}", getDoctorHandler(cfg.Directory))
	r.Put("/medicos/{id}", updateDoctorHandler(cfg.Directory))
	r.Delete("/medicos/{id}", deactivateDoctorHandler(cfg.Directory))

	// Patient directory
	r.Post("/pacientes", registerPatientHandler(cfg.Directory))
	r.Get("/pacientes", listPatientsHandler(cfg.Directory))
	r.Get("/pacientes/{id}", getPatientHandler(cfg.Directory))
	r.Put("/pacientes/{id}", updatePatientHandler(cfg.Directory))
	r.Delete("/pacientes/{id}", deactivatePatientHandler(cfg.Directory))

	return r
}

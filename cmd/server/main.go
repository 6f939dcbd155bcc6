package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/admission"
	"github.com/iliyamo/olymp-admission/internal/config"
	"github.com/iliyamo/olymp-admission/internal/database"
	"github.com/iliyamo/olymp-admission/internal/handler"
	"github.com/iliyamo/olymp-admission/internal/ingest"
	"github.com/iliyamo/olymp-admission/internal/queue"
	"github.com/iliyamo/olymp-admission/internal/repository"
	"github.com/iliyamo/olymp-admission/internal/router"
	"github.com/iliyamo/olymp-admission/internal/seating"
	"github.com/iliyamo/olymp-admission/internal/sheets"
	"github.com/iliyamo/olymp-admission/internal/storage"
	"github.com/iliyamo/olymp-admission/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	tokens, err := token.NewService(cfg.TokenSecret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	store, err := storage.NewFSStore(cfg.StorageRoot)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	competitions := repository.NewCompetitionRepo(db)
	rooms := repository.NewRoomRepo(db)
	institutions := repository.NewInstitutionRepo(db)
	registrations := repository.NewRegistrationRepo(db)
	entryTokens := repository.NewEntryTokenRepo(db)
	seatAssignments := repository.NewSeatAssignmentRepo(db)
	attempts := repository.NewAttemptRepo(db)
	answerSheets := repository.NewAnswerSheetRepo(db)
	scans := repository.NewScanRepo(db)
	events := repository.NewParticipantEventRepo(db)
	audit := repository.NewAuditLogRepo(db)

	// Services.
	engine := seating.NewEngine(db, seatAssignments, cfg.SeatAssignRetries)
	admissionSvc := admission.NewService(db, tokens, entryTokens, registrations,
		competitions, rooms, attempts, answerSheets, audit, engine, cfg.SeatAssignRetries)
	sheetSvc := sheets.NewService(db, tokens, answerSheets, attempts, audit,
		store, sheets.NewPDFGenerator())
	ocrEngine := ingest.NewHTTPEngine(cfg.OCREngineURL)
	ingestSvc := ingest.NewService(db, tokens, scans, answerSheets, attempts,
		audit, store, ocrEngine, ocrEngine, cfg.ScoreConfidence)

	// Background worker consuming scan jobs.  Runs its own reconnect
	// loop; a broker outage delays processing, not uploads.
	go func() {
		if err := queue.StartScanConsumer(ingestSvc); err != nil {
			log.Printf("scan consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users),
		Admin:        handler.NewAdminHandler(competitions, rooms, institutions),
		Registration: handler.NewRegistrationHandler(cfg, tokens, registrations, entryTokens, competitions, seatAssignments, attempts),
		Admission:    handler.NewAdmissionHandler(admissionSvc, sheetSvc),
		Invigilator:  handler.NewInvigilatorHandler(sheetSvc, events, seatAssignments, attempts),
		Scan:         handler.NewScanHandler(ingestSvc, sheetSvc, scans, attempts),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

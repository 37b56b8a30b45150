package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"

	"github.com/formicula/backend/internal/captcha"
	"github.com/formicula/backend/internal/config"
	"github.com/formicula/backend/internal/environment"
	"github.com/formicula/backend/internal/forms"
	"github.com/formicula/backend/internal/handler"
	"github.com/formicula/backend/internal/hook"
	"github.com/formicula/backend/internal/i18n"
	"github.com/formicula/backend/internal/links"
	"github.com/formicula/backend/internal/logging"
	"github.com/formicula/backend/internal/mailer"
	"github.com/formicula/backend/internal/metrics"
	"github.com/formicula/backend/internal/permission"
	"github.com/formicula/backend/internal/repository"
	"github.com/formicula/backend/internal/service"
	"github.com/formicula/backend/internal/session"
	"github.com/formicula/backend/internal/storage"
	"github.com/formicula/backend/internal/view"
	"github.com/formicula/backend/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	tr := i18n.New(cfg.Site.Language)
	cacheDir := cfg.Paths.CacheDir()
	probe := environment.NewSystemProbe(cfg.Mail.SMTPAddr)
	m := metrics.New()

	contactRepo := repository.NewPgContactRepository(pool)
	submissionRepo := repository.NewPgSubmissionRepository(pool)
	varRepo := repository.NewPgModuleVarRepository(pool)

	uploads := func(dir string) storage.Storage {
		return storage.NewLocalStorage(cfg.Paths.UploadDir(dir))
	}

	settingsService := service.NewSettingsService(varRepo, cfg.Paths.UploadDir, probe.DirWritable)
	contactService := service.NewContactService(contactRepo)
	submissionService := service.NewSubmissionService(submissionRepo, settingsService, uploads)
	authService := service.NewAuthService(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash)

	formsFS, err := fs.Sub(web.Templates, "templates/forms")
	if err != nil {
		logging.Fatal("failed to open form templates", "error", err)
	}
	if cfg.Paths.FormsDir != "" {
		formsFS = os.DirFS(cfg.Paths.FormsDir)
	}
	catalog := forms.NewCatalog(formsFS)

	pagesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		logging.Fatal("failed to open page templates", "error", err)
	}
	renderer, err := view.New(pagesFS, catalog, tr, cfg.Site.Language)
	if err != nil {
		logging.Fatal("failed to parse templates", "error", err)
	}

	formService := service.NewFormService(service.FormServiceDeps{
		Settings:    settingsService,
		Contacts:    contactRepo,
		Submissions: submissionRepo,
		Mailer:      mailer.NewSMTPMailer(cfg.Mail.SMTPAddr, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword),
		Renderer:    renderer,
		Captcha:     captcha.NewGenerator(cacheDir),
		Forms:       catalog,
		Hooks:       hook.NewBus(hook.FormUIHooksSubscriber{}),
		Uploads:     uploads,
		Recorder:    m,
		Translator:  tr,
		Site: service.SiteInfo{
			Name:   cfg.Site.Name,
			Sender: mail.Address{Name: cfg.Site.Name, Address: cfg.Mail.From},
		},
	})

	sessions := session.NewManager([]byte(cfg.Session.Secret), cfg.Session.MaxAge, cfg.Session.Secure)
	perms := permission.NewRoleChecker(cfg.Auth.AdminEmail)

	h := handler.New(handler.Deps{
		Sessions:    sessions,
		Pages:       renderer,
		Perms:       perms,
		Links:       links.NewContainer(perms, tr),
		Environment: environment.NewChecker(probe, settingsService, tr, cacheDir, nil),
		Translator:  tr,
		Advisories:  m,
	})
	submissionHandler := handler.NewSubmissionHandler(h, submissionService)
	configHandler := handler.NewConfigHandler(h, settingsService, catalog, cacheDir, m)
	contactHandler := handler.NewContactHandler(h, contactService)
	userHandler := handler.NewUserHandler(h, formService, renderer, cacheDir)
	authHandler := handler.NewAuthHandler(h, authService)
	healthHandler := handler.NewHealthHandler(pool)
	sendLimiter := handler.NewRateLimiter(cfg.RateLimit.SubmissionsPerMinute, tr.T("Too many submissions, please try again later."))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler.Health)
	mux.Handle("GET /metrics", m.Handler())

	mux.HandleFunc("GET /submission/view", submissionHandler.View)
	mux.HandleFunc("GET /submission/display", submissionHandler.Display)
	mux.HandleFunc("GET /submission/delete", submissionHandler.Delete)
	mux.HandleFunc("POST /submission/delete", submissionHandler.Delete)

	mux.HandleFunc("GET /config/config", configHandler.Config)
	mux.HandleFunc("POST /config/config", configHandler.Config)
	mux.HandleFunc("POST /config/clearcache", configHandler.ClearCache)

	mux.HandleFunc("GET /contact/view", contactHandler.View)
	mux.HandleFunc("GET /contact/edit", contactHandler.Edit)
	mux.HandleFunc("POST /contact/edit", contactHandler.Edit)
	mux.HandleFunc("GET /contact/delete", contactHandler.Delete)
	mux.HandleFunc("POST /contact/delete", contactHandler.Delete)

	mux.HandleFunc("GET /user/form", userHandler.Form)
	mux.Handle("POST /user/send", sendLimiter.Middleware(http.HandlerFunc(userHandler.Send)))
	mux.HandleFunc("GET /user/captcha/{file}", userHandler.Captcha)

	mux.HandleFunc("GET /login", authHandler.Login)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("POST /logout", authHandler.Logout)

	mux.Handle("GET /{$}", http.RedirectHandler("/user/form", http.StatusSeeOther))

	var root http.Handler = mux
	root = sessions.Identify(root)
	root = handler.SecurityHeaders(root)
	root = handler.RequestLogger(root)
	root = handler.Recovery(root)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

package connection

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskboard/config"
	"taskboard/controller/attachments"
	"taskboard/controller/auth"
	"taskboard/controller/comment"
	"taskboard/controller/task"
	"taskboard/controller/user"
	"taskboard/middleware"
	"taskboard/notifier"
	"taskboard/repository"
	"taskboard/scheduler"
	"taskboard/services"
	"taskboard/storage"
	"taskboard/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Auth        *services.AuthService
	Tasks       *services.TaskService
	Comments    *services.CommentService
	Attachments *services.AttachmentService
	Users       *services.UserService
}

// Dependencies are the infrastructure pieces services are built from.
type Dependencies struct {
	Repo      repository.Repository
	Notifier  services.Notifier
	Blobs     storage.BlobStore
	Tokens    notifier.TokenStore
	JWTSecret string
	Strict    bool
	Log       *zap.SugaredLogger
}

func NewServices(deps Dependencies) Services {
	blobs := deps.Blobs
	if blobs == nil {
		blobs = storage.Disabled{}
	}
	return Services{
		Auth:        services.NewAuthService(deps.Repo, deps.JWTSecret),
		Tasks:       services.NewTaskService(deps.Repo, deps.Notifier, workflow.Machine{Strict: deps.Strict}, deps.Log),
		Comments:    services.NewCommentService(deps.Repo),
		Attachments: services.NewAttachmentService(deps.Repo, blobs, deps.Log),
		Users:       services.NewUserService(deps.Repo, deps.Tokens),
	}
}

func NewRouter(svc Services, log *zap.SugaredLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AddAllowHeaders("Authorization", "x-user-role", "x-user-team", "x-user-id")
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Api is running!"})
	})

	router.Use(middleware.CallerMiddleware(svc.Auth))

	auth.AuthController(router, svc.Auth)
	task.TaskController(router, svc.Tasks)
	comment.CommentController(router, svc.Comments)
	attachments.AttachmentsController(router, svc.Attachments)
	user.UserController(router, svc.Users)

	return router
}

// StartServer wires every dependency from cfg and serves until SIGINT or SIGTERM.
func StartServer(cfg config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := OpenRepository(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeRepo()

	var (
		senders []notifier.Sender
		tokens  notifier.TokenStore
		blobs   storage.BlobStore = storage.Disabled{}
	)
	if smtp := cfg.SMTP(); smtp.Enabled() {
		senders = append(senders, notifier.NewSMTPSender(smtp))
	} else {
		log.Warn("SMTP is not configured, email notifications are disabled")
	}
	if cfg.FirebaseEnabled() {
		fb, err := FBConnection(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		defer fb.Close()
		firestoreTokens := notifier.NewFirestoreTokens(fb.Firestore)
		tokens = firestoreTokens
		senders = append(senders, notifier.NewPushSender(fb.Messaging, firestoreTokens))
		if fb.Bucket != nil {
			blobs = storage.NewFirebase(fb.Bucket, cfg.FirebaseBucket)
		}
	} else {
		log.Warn("Firebase is not configured, push notifications and uploads are disabled")
	}

	dispatcher := notifier.NewDispatcher(repo, log, cfg.AppBaseURL, senders...)
	svc := NewServices(Dependencies{
		Repo:      repo,
		Notifier:  dispatcher,
		Blobs:     blobs,
		Tokens:    tokens,
		JWTSecret: cfg.JWTSecret,
		Strict:    cfg.StrictTransitions,
		Log:       log,
	})

	reminders, err := scheduler.StartScheduler(cfg.ReminderCron, svc.Tasks, log)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown", "error", err)
	}
	<-reminders.Stop().Done()
	dispatcher.Wait()
	return nil
}

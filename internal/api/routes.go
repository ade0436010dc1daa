package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"haneye/internal/ai"
	"haneye/internal/analysis"
	"haneye/internal/ledger"
	"haneye/internal/store"
	"haneye/internal/util"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	LedgerPath     string
	UploadsDir     string
	AllowedOrigins []string
	SilentDB       bool
	AIConfig       ai.Config
	DisableAI      bool
	MockSeed       int64
	CacheTTL       time.Duration
}

// Server wires HTTP handlers with persistence, the feedback ledger, and the
// vision analyzer.
type Server struct {
	db             *store.Database
	ledger         *ledger.Ledger
	analyzer       ai.Analyzer
	uploadsDir     string
	allowedOrigins []string
	notifier       *EventNotifier
	resultCache    *gocache.Cache
	aiEnabled      bool
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	if cfg.LedgerPath == "" {
		return nil, errors.New("ledger path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	uploadsDir := strings.TrimSpace(cfg.UploadsDir)
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	seed := cfg.MockSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mock := ai.NewMock(seed)

	var analyzer ai.Analyzer = mock
	aiEnabled := false
	if cfg.DisableAI {
		logrus.Info("vision analyzer disabled via configuration, serving mocked verdicts")
	} else {
		client, err := ai.NewClient(cfg.AIConfig)
		switch {
		case err == nil:
			analyzer = ai.WithFallback(client, mock)
			aiEnabled = true
			logrus.WithField("model", cfg.AIConfig.Model).Info("vision analyzer enabled")
		case errors.Is(err, ai.ErrDisabled):
			logrus.Info("no OpenAI credentials configured, serving mocked verdicts")
		default:
			return nil, fmt.Errorf("ai client: %w", err)
		}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Server{
		db:             db,
		ledger:         ledger.New(cfg.LedgerPath),
		analyzer:       analyzer,
		uploadsDir:     uploadsDir,
		allowedOrigins: cfg.AllowedOrigins,
		notifier:       NewEventNotifier(),
		resultCache:    gocache.New(ttl, 2*ttl),
		aiEnabled:      aiEnabled,
	}, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/analyses", s.handleListAnalyses)
		api.GET("/analyses/:id", s.handleGetAnalysis)
		api.POST("/feedback", s.handleFeedback)
		api.GET("/insights", s.handleInsights)
		api.GET("/statistics", s.handleStatistics)
		api.GET("/export.json", s.handleExport)
		api.GET("/events", s.handleEvents)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	analyses, err := s.db.CountAnalyses()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ai_enabled":     s.aiEnabled,
		"uploads_dir":    s.uploadsDir,
		"analyses_count": analyses,
		"feedback_count": s.ledger.Len(),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.renderError(c, http.StatusBadRequest, errors.New("image file is required"))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}

	if _, ok := util.ImageMIMEType(fileHeader.Filename); !ok {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unsupported image type: %s", filepath.Ext(fileHeader.Filename)))
		return
	}

	destName := uuid.NewString() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	destPath := filepath.Join(s.uploadsDir, destName)
	if err := saveFormFile(fileHeader, destPath); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	hash, err := util.HashFile(destPath)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"path": destPath,
		"size": fileHeader.Size,
	}).Info("artwork image uploaded")

	c.JSON(http.StatusOK, UploadResponse{
		ImagePath: destPath,
		ImageHash: hash,
		Filename:  fileHeader.Filename,
		SizeBytes: fileHeader.Size,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	imagePath := strings.TrimSpace(req.ImagePath)
	if imagePath == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("image_path is required"))
		return
	}
	mime, ok := util.ImageMIMEType(imagePath)
	if !ok {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unsupported image type: %s", filepath.Ext(imagePath)))
		return
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("read image: %w", err))
		return
	}
	hash, err := util.HashFile(imagePath)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	if !req.Force {
		if dto, ok := s.cachedAnalysis(hash); ok {
			dto.Reused = true
			c.JSON(http.StatusOK, dto)
			return
		}
	}

	input := ai.Input{
		ImagePath: imagePath,
		ImageData: data,
		MIMEType:  mime,
		Context: analysis.Context{
			Artist: strings.TrimSpace(req.Artist),
			Period: strings.TrimSpace(req.Period),
			Medium: strings.TrimSpace(req.Medium),
		},
	}

	timer := util.StartTimer()
	result, err := s.analyzer.Analyze(c.Request.Context(), input)
	if err != nil {
		s.renderError(c, http.StatusBadGateway, fmt.Errorf("analyze image: %w", err))
		return
	}

	row := &store.Analysis{
		ID:               uuid.NewString(),
		ImagePath:        imagePath,
		ImageHash:        hash,
		ProcessingTimeMs: timer.ElapsedMs(),
	}
	if err := row.SetResult(result); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("encode result: %w", err))
		return
	}
	if err := s.db.SaveAnalysis(row); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save analysis: %w", err))
		return
	}

	dto, err := FromModel(*row)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	s.resultCache.Set(hash, row.ID, gocache.DefaultExpiration)

	logrus.WithFields(logrus.Fields{
		"analysis_id": row.ID,
		"verdict":     result.Verdict,
		"confidence":  result.ConfidenceScore,
		"elapsed_ms":  row.ProcessingTimeMs,
	}).Info("analysis complete")

	s.notifier.Broadcast(Event{Type: "analysis", Analysis: &dto})
	c.JSON(http.StatusOK, dto)
}

// cachedAnalysis resolves an image hash to a previously stored analysis,
// first through the in-memory cache and then through the store.
func (s *Server) cachedAnalysis(hash string) (AnalysisDTO, bool) {
	if cached, ok := s.resultCache.Get(hash); ok {
		if id, ok := cached.(string); ok {
			if row, err := s.db.GetAnalysis(id); err == nil {
				if dto, err := FromModel(*row); err == nil {
					return dto, true
				}
			}
		}
	}
	row, err := s.db.LatestByImageHash(hash)
	if err != nil {
		return AnalysisDTO{}, false
	}
	dto, err := FromModel(*row)
	if err != nil {
		return AnalysisDTO{}, false
	}
	s.resultCache.Set(hash, row.ID, gocache.DefaultExpiration)
	return dto, true
}

func (s *Server) handleListAnalyses(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}

	rows, total, err := s.db.ListAnalyses(store.AnalysisQuery{
		Verdict: c.Query("verdict"),
		Artist:  c.Query("artist"),
		Offset:  page * pageSize,
		Limit:   pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]AnalysisDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := FromModel(row)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			return
		}
		dtos = append(dtos, dto)
	}
	c.JSON(http.StatusOK, AnalysesResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("analysis id is required"))
		return
	}
	row, err := s.db.GetAnalysis(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("analysis %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	dto, err := FromModel(*row)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.AnalysisID) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("analysis_id is required"))
		return
	}
	if strings.TrimSpace(req.Feedback) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("feedback is required"))
		return
	}

	row, err := s.db.GetAnalysis(req.AnalysisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("analysis %s not found", req.AnalysisID))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	result, err := row.Result()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("decode analysis: %w", err))
		return
	}

	imagePath := strings.TrimSpace(req.ImagePath)
	if imagePath == "" {
		imagePath = row.ImagePath
	}

	record, err := s.ledger.Record(result, strings.TrimSpace(req.Feedback), imagePath)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"analysis_id": req.AnalysisID,
		"feedback":    record.UserFeedback,
	}).Info("feedback recorded")

	s.notifier.Broadcast(Event{Type: "feedback", Feedback: &record})
	c.JSON(http.StatusOK, FeedbackResponse{Record: record})
}

func (s *Server) handleInsights(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Insights())
}

func (s *Server) handleStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.Statistics())
}

func (s *Server) handleExport(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename=haneye-learning-export.json")
	c.JSON(http.StatusOK, s.ledger.BuildExport())
}

func (s *Server) handleEvents(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("event websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("event websocket closed")
			} else {
				logrus.WithError(err).Warn("event websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func saveFormFile(header *multipart.FileHeader, destPath string) error {
	if header == nil {
		return errors.New("file header is nil")
	}
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(destPath)
		return err
	}
	return dst.Close()
}

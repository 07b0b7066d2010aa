// Package server 提供 HTTP 接入：粘贴文本经 POST 提交，按与 CLI 相同的流水线追加。
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"

	"paste2excel/internal/diag"
	"paste2excel/internal/pipeline"
	"paste2excel/pkg/contract"
)

// HeaderRequestID: 请求 id 回写头。
const HeaderRequestID = "X-Request-ID"

// Server 持有 fiber 应用与流水线组件；追加经互斥串行化（单写者）。
type Server struct {
	app    *fiber.App
	comp   pipeline.Components
	logger *diag.Logger

	mu sync.Mutex
}

// Response 为 /contracts 与 /extract 的响应体。
type Response struct {
	ContractID contract.ContractID      `json:"contract_id"`
	Row        int                      `json:"row,omitempty"`
	Fields     contract.ExtractedFields `json:"fields"`
	Slots      contract.TargetRecord    `json:"slots"`
}

// ErrorResponse 为错误响应体。
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// New 构建 Server 并注册路由。comp.Sink 为 nil 时 /contracts 只返回抽取结果。
func New(comp pipeline.Components, logger *diag.Logger) *Server {
	s := &Server{comp: comp, logger: logger}
	s.app = fiber.New(fiber.Config{
		AppName:               "paste2excel",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(requestID)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(diag.MetricsHandler()))
	s.app.Post("/extract", s.extract)
	s.app.Post("/contracts", s.appendContract)
	return s
}

// App 暴露底层 fiber 应用（测试使用 App().Test）。
func (s *Server) App() *fiber.App { return s.app }

// Listen 阻塞监听 addr。
func (s *Server) Listen(addr string) error {
	t := s.logger.Start("server", "listen "+addr)
	err := s.app.Listen(addr)
	t.Finish("stopped", 0)
	return err
}

// Shutdown 优雅关闭并释放 Sink。
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.comp.Sink.(interface{ Close() error }); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(HeaderRequestID)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Locals(HeaderRequestID, id)
	c.Set(HeaderRequestID, id)
	return c.Next()
}

func contractID(c *fiber.Ctx) contract.ContractID {
	id, _ := c.Locals(HeaderRequestID).(string)
	return contract.ContractID("http-" + id)
}

func (s *Server) extract(c *fiber.Ctx) error {
	res := pipeline.Prepare(s.comp, contractID(c), string(c.Body()))
	return c.JSON(Response{ContractID: res.ID, Fields: res.Fields, Slots: res.Record})
}

func (s *Server) appendContract(c *fiber.Ctx) error {
	start := time.Now()
	res := pipeline.Prepare(s.comp, contractID(c), string(c.Body()))
	if len(res.Fields) == 0 {
		s.logger.Warn("server", "skip", contract.ErrNoFields.Error(), string(res.ID))
		diag.IncOp("server", "skip", "skipped")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error: contract.ErrNoFields.Error(),
			Code:  string(diag.CodeEmpty),
		})
	}

	s.mu.Lock()
	res, err := pipeline.Commit(c.UserContext(), s.comp, res, s.logger)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	diag.IncOp("server", "finish", "success")
	diag.ObserveDuration("server", "append", time.Since(start).Milliseconds())
	return c.Status(fiber.StatusCreated).JSON(Response{
		ContractID: res.ID,
		Row:        res.Append.Row,
		Fields:     res.Fields,
		Slots:      res.Record,
	})
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	code := diag.Classify(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.ErrorWith("server", string(code), err.Error(), nil, "")
		diag.IncError("server", string(code))
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Code: string(code)})
}

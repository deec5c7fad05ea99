package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuestionKey is the fiber.Locals key holding the sanitized question.
const QuestionKey = "sanitized_question"

var (
	ErrQuestionTooLong = errors.New("question exceeds maximum length")
	ErrUnsafeContent   = errors.New("invalid question content")
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror\s*=|onload\s*=|onclick\s*=)`)

type Config struct {
	MaxQuestionLength   int
	MaxUploadSize       int64
	AllowedExtensions   []string
	AllowedContentTypes []string
	Logger              *zap.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxQuestionLength <= 0 {
		cfg.MaxQuestionLength = 2000
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".pdf", ".html", ".htm", ".txt", ".md"}
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// ContentType rejects POST and PUT bodies of unexpected types.
func ContentType(cfg Config) fiber.Handler {
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType == "" {
			return c.Next()
		}
		for _, allowed := range cfg.AllowedContentTypes {
			if strings.Contains(contentType, allowed) {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "Unsupported content type",
		})
	}
}

// Question checks the "question" field of a JSON body and stores the
// sanitized value under QuestionKey. Blank questions are left to the handler.
func Question(cfg Config) fiber.Handler {
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		var req struct {
			Question *string `json:"question"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}
		if req.Question == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Question is required and must be a string",
			})
		}

		question, err := CheckQuestion(*req.Question, cfg.MaxQuestionLength)
		if err != nil {
			if errors.Is(err, ErrUnsafeContent) {
				cfg.Logger.Warn("Potential XSS attempt", zap.String("ip", c.IP()))
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals(QuestionKey, question)
		return c.Next()
	}
}

// CheckQuestion sanitizes q and enforces the length and content rules.
func CheckQuestion(q string, maxLength int) (string, error) {
	q = sanitizeString(q)
	if utf8.RuneCountInString(q) > maxLength {
		return "", fmt.Errorf("%w (%d characters)", ErrQuestionTooLong, maxLength)
	}
	if xssPattern.MatchString(q) {
		return "", ErrUnsafeContent
	}
	return q, nil
}

// Upload checks the multipart "file" field before the handler reads it.
func Upload(cfg Config) fiber.Handler {
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No file selected",
			})
		}

		if file.Size > cfg.MaxUploadSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "File exceeds maximum size",
			})
		}

		if !allowedExtension(file.Filename, cfg.AllowedExtensions) {
			cfg.Logger.Warn("Rejected upload",
				zap.String("ip", c.IP()),
				zap.String("filename", file.Filename),
			)
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported file type",
			})
		}

		return c.Next()
	}
}

func allowedExtension(filename string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func sanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

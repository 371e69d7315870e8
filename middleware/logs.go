package middleware

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"Atrium/Models"
)

// LogData is one JSON line in the request log.
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	Error         string        `json:"error,omitempty"`
	UserID        interface{}   `json:"user_id"`
	Username      string        `json:"username"`
	ContentLength int64         `json:"content_length"`
}

var (
	logFileMu sync.Mutex
	skipPaths = []string{"/health"}
)

// RequestLogger logs every request as a JSON line to the console and
// logs/requests.log, with latency and user attribution. Requests
// without an X-Request-ID get one assigned so audit trails and
// request logs can be correlated.
func RequestLogger() fiber.Handler {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		for _, skipPath := range skipPaths {
			if c.Path() == skipPath {
				return c.Next()
			}
		}

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
			c.Request().Header.Set("X-Request-ID", requestID)
		}

		err := c.Next()

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get("User-Agent"),
			RequestID:     requestID,
			ContentLength: int64(len(c.Response().Body())),
		}
		if user, ok := c.Locals("user").(Models.User); ok {
			data.UserID = user.Id
			data.Username = user.Name
		}
		if err != nil {
			data.Error = err.Error()
		}

		logRequest(data)
		return err
	}
}

func logRequest(data LogData) {
	line, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error encoding request log: %v\n", err)
		return
	}

	log.Println(string(line))

	logFileMu.Lock()
	defer logFileMu.Unlock()
	file, err := os.OpenFile("logs/requests.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening request log file: %v\n", err)
		return
	}
	defer file.Close()
	file.Write(append(line, '\n'))
}

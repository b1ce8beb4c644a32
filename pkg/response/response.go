package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/siapptn-tryout-api/pkg/errors"
)

// Envelope represents the success-flag contract shared with the legacy tryout service.
type Envelope struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Inserted *int64      `json:"inserted,omitempty"`
	JobID    string      `json:"jobId,omitempty"`
}

// JSON sends a success response merging the provided fields next to the success flag.
func JSON(c *gin.Context, status int, fields gin.H) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	body := gin.H{"success": true}
	for k, v := range fields {
		if k == "success" {
			continue
		}
		body[k] = v
	}
	c.JSON(status, body)
}

// Data responds with HTTP 200 and the collection under "data".
func Data(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, gin.H{"data": data})
}

// Message responds with HTTP 200 and a human readable confirmation.
func Message(c *gin.Context, message string) {
	JSON(c, http.StatusOK, gin.H{"message": message})
}

// Error converts the error to the common structure. Client errors carry their message,
// server errors carry the underlying error text.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Success: false}
	if appErr.Status >= http.StatusInternalServerError {
		envelope.Error = causeText(appErr)
	} else {
		envelope.Message = appErr.Message
	}
	c.JSON(appErr.Status, envelope)
}

func causeText(appErr *appErrors.Error) string {
	if appErr.Err != nil {
		return appErr.Err.Error()
	}
	return appErr.Message
}

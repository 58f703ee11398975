package routes

import (
	"net/http"
	"strings"

	"github.com/atlas-cmdb/backend/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// AskHandler answers a natural-language question about the configuration
// graph. The response body is the full answer payload, including the
// retrieved subgraph; a failed retrieval is reported inside the payload
// with status 200.
func AskHandler(c echo.Context) error {
	type askRequest struct {
		Question string `json:"question" validate:"required"`
	}

	type askErrorResponse struct {
		Message string `json:"message"`
	}

	data := new(askRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, askErrorResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, askErrorResponse{
			Message: "Invalid request body",
		})
	}
	// "required" only rejects the zero value; a blank question must not
	// reach the pipeline either.
	if strings.TrimSpace(data.Question) == "" {
		return c.JSON(http.StatusBadRequest, askErrorResponse{
			Message: "Question cannot be empty",
		})
	}

	ctx := c.Request().Context()
	answerPipeline := c.(*middleware.AppContext).App.Pipeline

	payload := answerPipeline.Answer(ctx, data.Question)
	return c.JSON(http.StatusOK, payload)
}

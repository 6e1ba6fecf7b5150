package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bz888/localchat/internal/api/server/client"
	"github.com/bz888/localchat/internal/chat"
	"github.com/bz888/localchat/internal/logger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Reply texts used when no real completion is available. Callers of /api/chat
// only ever see these as ordinary assistant text.
const (
	NoMessagesText    = "No messages provided."
	ParseErrorText    = "Error parsing LLM response"
	GenerateErrorText = "Error generating response."
)

type Handler struct {
	inferenceClient client.InferenceClientInterface
	model           string
	systemPrompt    string
}

func NewHandler(inferenceClient client.InferenceClientInterface, model, systemPrompt string) *Handler {
	return &Handler{
		inferenceClient: inferenceClient,
		model:           model,
		systemPrompt:    systemPrompt,
	}
}

// ChatHandler serves POST /api/chat. It always answers 200 with one assistant
// turn; failures are reported as the turn's text.
func (h *Handler) ChatHandler(c echo.Context) (err error) {
	localLogger := logger.NewLogger("ChatHandler")
	requestID := uuid.New().String()[:8]

	defer func() {
		if r := recover(); r != nil {
			localLogger.Error("Recovered in /api/chat", requestID, r)
			err = c.JSON(http.StatusOK, chat.NewAssistantTurn(GenerateErrorText))
		}
	}()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		localLogger.Error("Failed to read request body", requestID, err)
		return c.JSON(http.StatusOK, chat.NewAssistantTurn(GenerateErrorText))
	}
	defer c.Request().Body.Close()

	var clientReq chat.ChatRequest
	if err := json.Unmarshal(body, &clientReq); err != nil {
		localLogger.Error("Failed to decode request", requestID, err)
		return c.JSON(http.StatusOK, chat.NewAssistantTurn(GenerateErrorText))
	}

	return c.JSON(http.StatusOK, h.Reply(c.Request().Context(), requestID, clientReq.Messages))
}

// Reply runs one normalize-and-complete round trip.
func (h *Handler) Reply(ctx context.Context, requestID string, turns []chat.Turn) chat.Turn {
	localLogger := logger.NewLogger("ChatHandler")

	if len(turns) == 0 {
		return chat.NewAssistantTurn(NoMessagesText)
	}

	apiReq := client.CompletionRequest{
		Model:    h.model,
		Messages: Normalize(h.systemPrompt, turns),
		Stream:   false,
	}
	localLogger.Info("Forwarding messages to local LLM", requestID, apiReq.Messages)

	raw, err := h.inferenceClient.Complete(ctx, &apiReq)
	if err != nil {
		localLogger.Error("Error in /api/chat", requestID, err)
		return chat.NewAssistantTurn(GenerateErrorText)
	}

	resp, ok := client.ParseCompletion(raw)
	if !ok {
		localLogger.Error("Failed to parse JSON from LLM", requestID, string(raw))
		return chat.NewAssistantTurn(ParseErrorText)
	}

	output, found := resp.FirstContent()
	if !found {
		localLogger.Warn("No content in first choice", requestID, string(raw))
	}
	localLogger.Info("LLM response", requestID, output)

	return chat.NewAssistantTurn(output)
}

// ModelHandler serves GET /api/models with the model ids the inference server
// reports, or an empty list when it cannot be asked.
func (h *Handler) ModelHandler(c echo.Context) error {
	localLogger := logger.NewLogger("ModelHandler")

	models, err := h.inferenceClient.GetModels(c.Request().Context())
	if err != nil {
		localLogger.Error("Failed to fetch models", err)
		return c.JSON(http.StatusOK, []string{})
	}

	modelNames := make([]string, 0, len(models))
	for _, model := range models {
		if model.ID != "" {
			modelNames = append(modelNames, model.ID)
		}
	}
	return c.JSON(http.StatusOK, modelNames)
}

type Status struct {
	ServerWorking      bool   `json:"server_working"`
	InferenceReachable bool   `json:"inference_reachable"`
	Model              string `json:"model"`
}

func (h *Handler) StatusHandler(c echo.Context) error {
	status := Status{
		ServerWorking:      true,
		InferenceReachable: h.inferenceClient.Ping(c.Request().Context()) == nil,
		Model:              h.model,
	}
	return c.JSON(http.StatusOK, status)
}

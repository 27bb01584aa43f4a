package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"

	"github.com/your-org/charstudio/internal/apperr"
	"github.com/your-org/charstudio/internal/auth"
	"github.com/your-org/charstudio/internal/characters"
	"github.com/your-org/charstudio/internal/gemini"
	"github.com/your-org/charstudio/internal/models"
	"github.com/your-org/charstudio/internal/storage"
	"github.com/your-org/charstudio/pkg/dto"
)

// CharacterService is implemented by *characters.Service.
type CharacterService interface {
	ListLibrary(ctx context.Context, ownerID string) ([]models.Character, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.Character, error)
	ReferenceImage(ctx context.Context, ownerID, id string) (*storage.Object, error)
	CreatePair(ctx context.Context, ownerID string, a, b characters.ImageInput) (*characters.Pair, error)
	GenerateVisualization(ctx context.Context, ownerID, id, prompt string) (*gemini.Image, error)
}

type CharacterHandler struct {
	svc CharacterService
}

func NewCharacterHandler(svc CharacterService) *CharacterHandler {
	return &CharacterHandler{svc: svc}
}

func (h *CharacterHandler) List(c *gin.Context) {
	list, err := h.svc.ListLibrary(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.CharacterResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.FromCharacter(&list[i]))
	}
	c.JSON(http.StatusOK, dto.LibraryResponse{Characters: resp, Total: len(resp)})
}

func (h *CharacterHandler) Get(c *gin.Context) {
	character, err := h.svc.GetByID(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromCharacter(character))
}

// Image streams the stored reference image of an owned character.
func (h *CharacterHandler) Image(c *gin.Context) {
	obj, err := h.svc.ReferenceImage(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, contentType, obj.Data)
}

func (h *CharacterHandler) CreatePair(c *gin.Context) {
	var req dto.CreatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("bind create pair request", "error", err)
		respondError(c, apperr.InvalidArgument("invalid request body"))
		return
	}

	pair, err := h.svc.CreatePair(c.Request.Context(), auth.UserID(c),
		characters.ImageInput{Data: req.ImageA, MIMEType: req.ImageAMimeType},
		characters.ImageInput{Data: req.ImageB, MIMEType: req.ImageBMimeType},
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PairResponse{
		CharacterA: dto.FromCharacter(pair.A),
		CharacterB: dto.FromCharacter(pair.B),
	})
}

func (h *CharacterHandler) Visualize(c *gin.Context) {
	var req dto.VisualizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("bind visualization request", "error", err)
		respondError(c, apperr.InvalidArgument("characterId and prompt are required"))
		return
	}

	img, err := h.svc.GenerateVisualization(c.Request.Context(), auth.UserID(c), req.CharacterID, req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.VisualizationResponse{ImageBytes: img.Data, MimeType: img.MIMEType})
}

func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Code == codes.Internal {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(e.Code), dto.ErrorResponse{
		Error: dto.ErrorDetail{Code: e.Code.String(), Message: e.Message},
	})
}

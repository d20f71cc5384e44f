package handlers

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/adapter/artifacts"
	"github.com/farmassist-bd/farmassist/internal/domain"
	"github.com/farmassist-bd/farmassist/internal/service/advisory"
)

// AdvisoryHandler exposes the advisory pipeline over HTTP. Each endpoint
// normalizes its transport shape into one input bundle; the pipeline itself
// never fails, so these handlers only report transport-level errors.
type AdvisoryHandler struct {
	svc   *advisory.Service
	store *artifacts.Store
	log   *zap.Logger
}

func NewAdvisoryHandler(svc *advisory.Service, store *artifacts.Store, log *zap.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		svc:   svc,
		store: store,
		log:   log,
	}
}

// UploadAudio handles a recorded voice question as a multipart upload.
func (h *AdvisoryHandler) UploadAudio(c *fiber.Ctx) error {
	file, err := formFile(c, "audio", "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Audio file is required"})
	}

	ref, err := h.saveUpload(file)
	if err != nil {
		h.log.Error("Failed to store audio upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store upload"})
	}

	path, err := h.store.Path(ref)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store upload"})
	}

	in := &domain.AdvisoryInput{
		Audio:    &domain.MediaRef{Path: path, MimeType: file.Header.Get("Content-Type")},
		UserID:   c.FormValue("user_id"),
		Location: parseLocation(c.FormValue("lat"), c.FormValue("lon")),
	}
	if image, err := c.FormFile("image"); err == nil {
		if ref, err := h.attachUpload(image); err == nil {
			in.Image = ref
		} else {
			h.log.Warn("Failed to store accompanying image, continuing without it", zap.Error(err))
		}
	}

	return c.JSON(h.svc.Run(c.Context(), in))
}

// UploadImage handles a crop photo, optionally with a text question.
func (h *AdvisoryHandler) UploadImage(c *fiber.Ctx) error {
	file, err := formFile(c, "image", "file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Image file is required"})
	}

	ref, err := h.saveUpload(file)
	if err != nil {
		h.log.Error("Failed to store image upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store upload"})
	}

	path, err := h.store.Path(ref)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store upload"})
	}

	in := &domain.AdvisoryInput{
		Image:    &domain.MediaRef{Path: path, MimeType: file.Header.Get("Content-Type")},
		Text:     c.FormValue("question"),
		UserID:   c.FormValue("user_id"),
		Location: parseLocation(c.FormValue("lat"), c.FormValue("lon")),
	}

	return c.JSON(h.svc.Run(c.Context(), in))
}

type chatRequest struct {
	Message string   `json:"message" form:"message"`
	UserID  string   `json:"user_id" form:"user_id"`
	Lat     *float64 `json:"lat" form:"lat"`
	Lon     *float64 `json:"lon" form:"lon"`
}

// Chat handles a text question, sent as JSON or as a multipart form with an
// optional attached image.
func (h *AdvisoryHandler) Chat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	in := &domain.AdvisoryInput{
		Text:   req.Message,
		UserID: req.UserID,
	}
	if req.Lat != nil && req.Lon != nil {
		in.Location = &domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon}
	}
	if image, err := c.FormFile("image"); err == nil {
		if ref, err := h.attachUpload(image); err == nil {
			in.Image = ref
		} else {
			h.log.Warn("Failed to store accompanying image, continuing without it", zap.Error(err))
		}
	}

	return c.JSON(h.svc.Run(c.Context(), in))
}

// GetSpeech streams a previously synthesized mp3 by its artifact reference.
func (h *AdvisoryHandler) GetSpeech(c *fiber.Ctx) error {
	ref := c.Query("path")
	if ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path query parameter is required"})
	}

	r, err := h.store.Open(ref)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Audio not found"})
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.SendStream(r)
}

// attachUpload stores an optional secondary upload and returns its MediaRef.
func (h *AdvisoryHandler) attachUpload(file *multipart.FileHeader) (*domain.MediaRef, error) {
	ref, err := h.saveUpload(file)
	if err != nil {
		return nil, err
	}
	path, err := h.store.Path(ref)
	if err != nil {
		return nil, err
	}
	return &domain.MediaRef{Path: path, MimeType: file.Header.Get("Content-Type")}, nil
}

func (h *AdvisoryHandler) saveUpload(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.store.SaveUpload(f, file.Filename, file.Header.Get("Content-Type"))
}

func formFile(c *fiber.Ctx, names ...string) (*multipart.FileHeader, error) {
	var err error
	for _, name := range names {
		var file *multipart.FileHeader
		if file, err = c.FormFile(name); err == nil {
			return file, nil
		}
	}
	return nil, err
}

func parseLocation(latStr, lonStr string) *domain.GeoPoint {
	if latStr == "" || lonStr == "" {
		return nil
	}
	lat, errLat := strconv.ParseFloat(latStr, 64)
	lon, errLon := strconv.ParseFloat(lonStr, 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	return &domain.GeoPoint{Lat: lat, Lon: lon}
}

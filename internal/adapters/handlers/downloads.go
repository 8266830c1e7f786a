package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"reelgrab/internal/core/domain"
	"reelgrab/internal/core/ports"
)

type (
	DownloadRequest struct {
		URL string `json:"url" validate:"required,url"`
	}

	// DownloadDto is the stored result plus links to the served artifacts.
	DownloadDto struct {
		domain.StoredResult
		VideoFileURL string `json:"videoFileUrl"`
		AudioFileURL string `json:"audioFileUrl,omitempty"`
	}

	downloadsController struct {
		validate   *validator.Validate
		downloader Downloader
		store      ports.ResultStore
	}
)

func newDownloadsController(validate *validator.Validate, downloader Downloader, store ports.ResultStore) *downloadsController {
	return &downloadsController{validate: validate, downloader: downloader, store: store}
}

func (controller *downloadsController) SetRoutes(eg *echo.Group) {
	eg.POST("/download", controller.create)
	eg.GET("/downloads", controller.list)
	eg.GET("/downloads/:id", controller.get)
}

func (controller *downloadsController) create(ec echo.Context) error {
	var request DownloadRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, domain.UserMessage(domain.KindValidation)).SetInternal(err)
	}

	request.URL = strings.TrimSpace(request.URL)
	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, domain.UserMessage(domain.KindValidation)).SetInternal(err)
	}

	ctx := ec.Request().Context()
	result, err := controller.downloader.Download(ctx, request.URL)
	if err != nil {
		return err
	}

	stored, err := controller.store.Save(ctx, *result)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save the download result").SetInternal(err)
	}

	return ec.JSON(http.StatusCreated, NewDownloadDto(stored))
}

func (controller *downloadsController) list(ec echo.Context) error {
	results, err := controller.store.List(ec.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load downloads").SetInternal(err)
	}

	dtos := make([]DownloadDto, 0, len(results))
	for i := range results {
		dtos = append(dtos, NewDownloadDto(&results[i]))
	}

	return ec.JSON(http.StatusOK, dtos)
}

func (controller *downloadsController) get(ec echo.Context) error {
	result, err := controller.store.Get(ec.Request().Context(), ec.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Download not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load download").SetInternal(err)
	}

	return ec.JSON(http.StatusOK, NewDownloadDto(result))
}

func NewDownloadDto(result *domain.StoredResult) DownloadDto {
	dto := DownloadDto{StoredResult: *result}
	if result.Filename != "" {
		dto.VideoFileURL = "/files/videos/" + url.PathEscape(result.Filename)
	}
	if result.AudioPath != "" {
		dto.AudioFileURL = "/files/audios/" + url.PathEscape(filepath.Base(result.AudioPath))
	}

	return dto
}

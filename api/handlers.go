package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard/domain"
	"taskboard/storage"
)

// Register wires up all API routes on the provided Echo instance. The gzip
// request middleware only guards the multipart routes; everything else takes
// bodies too small to be worth compressing.
func Register(e *echo.Echo, store Storage, attachments Attachments, logger *log.Logger) {
	e.JSONSerializer = sonicSerializer{}
	gunzip := GzipRequestMiddleware()

	e.GET("/tasks", listTasks(store, logger))
	e.GET("/tasks/:id", getTask(store))
	e.POST("/tasks", createTask(store, attachments), gunzip)
	e.PUT("/tasks/:id", updateTask(store, attachments, logger), gunzip)
	e.DELETE("/tasks/:id", deleteTask(store, attachments, logger))
	e.GET("/files/:taskId", downloadFile(store, attachments))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		fetchStart := time.Now()
		tasks, fetchErr := store.FetchTasks(ctx)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, errorResponse{Message: fetchErr.Error()})
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := store.GetTask(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgTaskNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}
		return c.JSON(http.StatusOK, task)
	}
}

func createTask(store Storage, attachments Attachments) echo.HandlerFunc {
	return func(c echo.Context) error {
		title := c.FormValue("title")
		description := c.FormValue("description")
		upload := formUpload(c)

		errs := domain.ValidateTask(title, description, uploadName(upload), upload != nil)
		if errs.Failed() {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: msgInvalidData, Errors: errs})
		}

		task := domain.Task{
			ID:          uuid.NewString(),
			Title:       title,
			Description: description,
			Status:      domain.StatusToDo,
		}

		if upload != nil {
			path, name, err := saveUpload(attachments, upload)
			if err != nil {
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, errorResponse{Message: "could not store file"})
			}
			task.FilePath = path
			task.FileName = name
		}

		if err := store.CreateTask(c.Request().Context(), &task); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(store Storage, attachments Attachments, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		// The status check precedes field validation and fails on its own.
		status, statusErr := domain.ParseStatus(c.FormValue("status"))
		if statusErr != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: msgInvalidStatus})
		}

		title := c.FormValue("title")
		description := c.FormValue("description")
		upload := formUpload(c)

		errs := domain.ValidateTask(title, description, uploadName(upload), upload != nil)
		if errs.Failed() {
			return c.JSON(http.StatusBadRequest, errorResponse{Message: msgInvalidData, Errors: errs})
		}

		ctx := c.Request().Context()
		task, err := store.GetTask(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		// Replace-or-clear: the previous file goes away on every update and
		// the reference survives only when a new upload arrives. A failed
		// delete is logged and never blocks the record write.
		if err := attachments.Remove(task.FilePath); err != nil {
			logger.WithFields(log.Fields{"task": task.ID, "path": task.FilePath}).Error(err)
		}
		task.FilePath = ""
		task.FileName = ""

		if upload != nil {
			path, name, err := saveUpload(attachments, upload)
			if err != nil {
				c.Logger().Error(err)
				return c.JSON(http.StatusInternalServerError, errorResponse{Message: "could not store file"})
			}
			task.FilePath = path
			task.FileName = name
		}

		task.Title = title
		task.Description = description
		task.Status = status

		if err := store.UpdateTask(ctx, &task); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		return c.JSON(http.StatusOK, task)
	}
}

func deleteTask(store Storage, attachments Attachments, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		task, err := store.GetTask(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		if err := attachments.Remove(task.FilePath); err != nil {
			logger.WithFields(log.Fields{"task": task.ID, "path": task.FilePath}).Error(err)
		}

		if err := store.DeleteTask(ctx, task.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func downloadFile(store Storage, attachments Attachments) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := store.GetTask(c.Request().Context(), c.Param("taskId"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.JSON(http.StatusNotFound, errorResponse{Message: msgTaskNotFound})
			}
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
		}

		if !task.HasFile() || !attachments.Exists(task.FilePath) {
			return c.JSON(http.StatusNotFound, errorResponse{Message: msgTaskNotFound})
		}

		return c.Attachment(task.FilePath, filepath.Base(task.FilePath))
	}
}

// formUpload returns the uploaded file part, or nil when the request carries
// none. The original reference may still arrive as a plain string field named
// "file"; that is not an upload and is ignored here.
func formUpload(c echo.Context) *multipart.FileHeader {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil
	}
	return fh
}

func uploadName(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	return fh.Filename
}

func saveUpload(attachments Attachments, fh *multipart.FileHeader) (path, name string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	path, err = attachments.Save(src, fh.Filename)
	if err != nil {
		return "", "", err
	}
	return path, fh.Filename, nil
}

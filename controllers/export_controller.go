package controllers

import (
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devmarked/feedbackiq/config"
	"github.com/devmarked/feedbackiq/middleware"
	"github.com/devmarked/feedbackiq/models"
	"github.com/devmarked/feedbackiq/services"
	"github.com/devmarked/feedbackiq/utils"
)

// GET /api/surveys/:id/responses/export — synchronous CSV download.
func DownloadResponsesCSV(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	doc, err := survey.Document()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to read survey data"})
		return
	}
	responses, err := store.ListResponses(c.Request.Context(), survey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to list responses"})
		return
	}

	data := services.BuildResponsesCSV(doc.Questions, responses)
	filename := fmt.Sprintf("%s-responses.csv", survey.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

type exportRequest struct {
	Format    string  `json:"format"` // csv (default) or xlsx
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

// POST /api/surveys/:id/export — queues an async export job.
func CreateExport(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Format must be csv or xlsx"})
		return
	}

	var fromPtr, toPtr *time.Time
	if req.RangeFrom != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeFrom); err == nil {
			fromPtr = &t
		}
	}
	if req.RangeTo != nil {
		if t, err := time.Parse(time.RFC3339, *req.RangeTo); err == nil {
			toPtr = &t
		}
	}

	job := models.ExportJob{
		JobID:     uuid.New().String(),
		SurveyID:  survey.ID,
		Format:    req.Format,
		RangeFrom: fromPtr,
		RangeTo:   toPtr,
		Status:    models.ExportQueued,
	}
	if err := config.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to queue export"})
		return
	}

	go processExportJob(job.JobID)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
	})
}

// GET /api/exports/:job_id — poll the job; done jobs stream or redirect to
// the artifact.
func GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to load job"})
		return
	}

	if job.Status == models.ExportDone {
		if job.ArtifactURL != nil {
			c.Redirect(http.StatusFound, *job.ArtifactURL)
			return
		}
		if job.FilePath != nil {
			c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

func failExportJob(job *models.ExportJob, err error) {
	em := err.Error()
	config.DB.Model(job).Updates(map[string]interface{}{"status": models.ExportFailed, "error_msg": em})
}

// processExportJob renders the artifact and uploads it to storage, falling
// back to a local file when storage is not configured.
func processExportJob(jobID string) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	config.DB.Model(&job).Update("status", models.ExportProcessing)

	var survey models.Survey
	if err := config.DB.First(&survey, "id = ?", job.SurveyID).Error; err != nil {
		failExportJob(&job, err)
		return
	}
	doc, err := survey.Document()
	if err != nil {
		failExportJob(&job, err)
		return
	}

	var responses []models.SurveyResponse
	q := config.DB.Where("survey_id = ?", job.SurveyID).Order("submitted_at DESC, id DESC")
	if job.RangeFrom != nil {
		q = q.Where("submitted_at >= ?", job.RangeFrom)
	}
	if job.RangeTo != nil {
		q = q.Where("submitted_at <= ?", job.RangeTo)
	}
	if err := q.Find(&responses).Error; err != nil {
		failExportJob(&job, err)
		return
	}

	var data []byte
	contentType := "text/csv"
	switch job.Format {
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		data, err = services.BuildResponsesXLSX(doc.Questions, responses)
		if err != nil {
			failExportJob(&job, err)
			return
		}
	default:
		data = services.BuildResponsesCSV(doc.Questions, responses)
	}

	filename := fmt.Sprintf("export_%s.%s", job.JobID, job.Format)

	if utils.StorageConfigured() {
		url, err := utils.UploadArtifact(data, filename, contentType)
		if err != nil {
			failExportJob(&job, err)
			return
		}
		config.DB.Model(&job).Updates(map[string]interface{}{"status": models.ExportDone, "artifact_url": url})
		return
	}

	outDir := "./exports"
	os.MkdirAll(outDir, 0755)
	outPath := path.Join(outDir, filename)
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		failExportJob(&job, err)
		return
	}
	config.DB.Model(&job).Updates(map[string]interface{}{"status": models.ExportDone, "file_path": outPath})
}

// GET /api/surveys/:id/qr?size=display|download — PNG QR for the public
// survey link.
func SurveyQR(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	size := utils.QRSizeDisplay
	if c.Query("size") == "download" {
		size = utils.QRSizeDownload
	}

	base := os.Getenv("PUBLIC_BASE_URL")
	if base == "" {
		base = "http://localhost:5173"
	}
	publicURL := fmt.Sprintf("%s/survey/%s", base, survey.ID)

	png, err := utils.SurveyQRPNG(publicURL, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unable to render QR code"})
		return
	}

	if size == utils.QRSizeDownload {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", survey.ID+"-qr.png"))
	}
	c.Data(http.StatusOK, "image/png", png)
}

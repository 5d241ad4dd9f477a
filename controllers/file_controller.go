package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/services"
	"github.com/hoaxify/hoaxify/utils"
)

// Attachment uploads are capped well below the post size a feed client sends.
const maxAttachmentSize = 5 * 1024 * 1024

// FileController handles attachment uploads for hoaxes.
type FileController struct {
	db    *gorm.DB
	files *services.FileService
}

// NewFileController creates a new FileController instance.
func NewFileController(db *gorm.DB, files *services.FileService) *FileController {
	return &FileController{db: db, files: files}
}

// UploadAttachment stores an uploaded file and returns the attachment record
// the client references when it later creates the hoax. The content type is
// detected from the bytes, never taken from the request.
func (f *FileController) UploadAttachment(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	if header.Size > maxAttachmentSize {
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds 5MB")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to read file")
		return
	}
	if len(data) > maxAttachmentSize {
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds 5MB")
		return
	}

	attachment, err := f.files.SaveAttachment(data)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}

	utils.Success(ctx, gin.H{"attachment": attachment})
}

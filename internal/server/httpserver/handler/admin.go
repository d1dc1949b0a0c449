package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/storage/backup"
)

// Backup response headers.
const (
	HeaderBackupChecksum  = "X-Backup-Checksum"
	HeaderBackupEncrypted = "X-Backup-Encrypted"
)

// handleBackup handles GET /api/lwm2m/admin/backup and streams the archive.
func (h *Handler) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, info, err := h.backup.Backup(r.Context())
	if err != nil {
		h.handleServiceError(w, r, domain.ErrStorageError.WithCause(err))
		return
	}

	name := fmt.Sprintf("lwm2m-seccfg-%s.lwbk", time.UnixMilli(info.CreatedAt).UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set(HeaderBackupChecksum, info.Checksum)
	w.Header().Set(HeaderBackupEncrypted, strconv.FormatBool(info.Encrypted))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log(r).Warn("backup download interrupted", "error", err)
		return
	}
	h.log(r).Info("backup downloaded", "size", info.Size, "checksum", info.Checksum)
}

// handleRestore handles POST /api/lwm2m/admin/restore. The body is an
// archive produced by handleBackup.
func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxArchiveSize)
	info, err := h.backup.Restore(r.Context(), r.Body)
	if err != nil {
		h.handleServiceError(w, r, restoreError(err))
		return
	}
	h.log(r).Warn("storage restored from backup", "size", info.Size, "checksum", info.Checksum)
	h.writeJSON(w, r, http.StatusOK, info)
}

func restoreError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return domain.ErrBadRequest.WithDetails("archive too large")
	case errors.Is(err, backup.ErrInvalidMagic),
		errors.Is(err, backup.ErrChecksumMismatch),
		errors.Is(err, backup.ErrPassphraseRequired),
		errors.Is(err, backup.ErrDecryptionFailed):
		return domain.ErrBadRequest.WithDetails(err.Error())
	default:
		return domain.ErrStorageError.WithCause(err)
	}
}

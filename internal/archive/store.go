// Package archive copies rendered healing-history documents to S3 and keeps
// a monthly JSONL manifest of what was stored.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

// S3API is the part of the S3 client the archive needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ManifestEntry is one line of the monthly manifest.
type ManifestEntry struct {
	PatientHash      string `json:"patient_hash"`
	S3Key            string `json:"s3_key"`
	Pages            int    `json:"pages"`
	FirstAssessment  string `json:"first_assessment,omitempty"`
	LatestAssessment string `json:"latest_assessment,omitempty"`
	ArchivedAt       string `json:"archived_at"`
}

// Store archives history documents to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore returns a Store writing to bucket. An empty bucket disables it.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled reports whether a bucket and client are configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// HashPatientID returns the hex SHA-256 of a patient id. Object keys and
// the manifest carry only the hash.
func HashPatientID(patientID string) string {
	h := sha256.Sum256([]byte(patientID))
	return fmt.Sprintf("%x", h)
}

// Archive uploads doc and records it in the manifest. It returns the object
// key, or "" when the store is disabled.
func (s *Store) Archive(ctx context.Context, doc *history.Document) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if doc == nil {
		return "", errors.New("archive: document is nil")
	}
	data, err := doc.ReadPDF()
	if err != nil {
		return "", fmt.Errorf("archive: read document: %w", err)
	}

	now := s.now().UTC()
	patientHash := HashPatientID(doc.PatientID)
	key := fmt.Sprintf("healing-history/v1/by-patient/%s/%d/%02d/%02d/%s",
		patientHash[:16], now.Year(), now.Month(), now.Day(), filepath.Base(doc.Path))

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
		Metadata: map[string]string{
			"pages": strconv.Itoa(len(doc.Pages)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived healing history to S3",
		"s3_key", key,
		"pages", len(doc.Pages),
		"bytes", len(data),
	)

	entry := ManifestEntry{
		PatientHash: patientHash,
		S3Key:       key,
		Pages:       len(doc.Pages),
		ArchivedAt:  now.Format(time.RFC3339),
	}
	if n := len(doc.Pages); n > 0 {
		entry.FirstAssessment = doc.Pages[0].AssessmentDate
		entry.LatestAssessment = doc.Pages[n-1].AssessmentDate
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		// the document itself is stored; a missing manifest line is recoverable
		s.logger.Warn("failed to append manifest", "error", err, "s3_key", key)
	}
	return key, nil
}

// AppendManifest adds one line to the month's JSONL manifest of archived histories.
// S3 has no append, so this is a read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return nil
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("healing-history/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

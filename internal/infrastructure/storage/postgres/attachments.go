package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"corseg/internal/core/apperror"
	"corseg/internal/core/id"
)

// CompressionAlgo specifies the compression algorithm used at rest.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AttachmentStore keeps attachment payloads (claim documents, policy
// scans) in the attachments table, zstd-compressed above a small
// threshold. Implements reclamo.DocumentoStore.
type AttachmentStore struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder

	// compressThreshold in bytes; smaller payloads are stored verbatim.
	compressThreshold int
}

// NewAttachmentStore creates an attachment store.
func NewAttachmentStore(txManager *TxManager) (*AttachmentStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AttachmentStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 1024,
	}, nil
}

// Put stores a payload, compressing it when it is worth the space.
func (s *AttachmentStore) Put(ctx context.Context, documentoID id.ID, data []byte) error {
	algo := CompressionNone
	payload := data
	if len(data) > s.compressThreshold {
		payload = s.encoder.EncodeAll(data, nil)
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO attachments (id, payload, compression_algo, original_size)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET payload = EXCLUDED.payload,
		    compression_algo = EXCLUDED.compression_algo,
		    original_size = EXCLUDED.original_size
	`
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		documentoID, payload, algo, len(data))
	if err != nil {
		return fmt.Errorf("store attachment: %w", err)
	}
	return nil
}

// Get loads and decompresses a payload.
func (s *AttachmentStore) Get(ctx context.Context, documentoID id.ID) ([]byte, error) {
	sql := `SELECT payload, compression_algo FROM attachments WHERE id = $1`

	var payload []byte
	var algo CompressionAlgo
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, documentoID).
		Scan(&payload, &algo)
	if err != nil {
		return nil, apperror.NewNotFound("attachment", documentoID.String()).WithCause(err)
	}

	if algo == CompressionZstd {
		decompressed, err := s.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress attachment: %w", err)
		}
		return decompressed, nil
	}
	return payload, nil
}

// Delete removes a payload.
func (s *AttachmentStore) Delete(ctx context.Context, documentoID id.ID) error {
	sql := `DELETE FROM attachments WHERE id = $1`
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, documentoID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}

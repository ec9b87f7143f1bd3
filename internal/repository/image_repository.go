package repository

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
)

// GridFSImageRepository keeps uploaded listing images in a GridFS bucket.
type GridFSImageRepository struct {
	bucket *gridfs.Bucket
}

func NewGridFSImageRepository(db *mongo.Database) (*GridFSImageRepository, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("ImageRepository: open bucket: %w", err)
	}
	return &GridFSImageRepository{bucket: bucket}, nil
}

func (r *GridFSImageRepository) Upload(_ context.Context, file io.Reader, filename string) (string, error) {
	stream, err := r.bucket.OpenUploadStream(filename)
	if err != nil {
		return "", fmt.Errorf("ImageRepository.Upload: %w", err)
	}

	if _, err := io.Copy(stream, file); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("ImageRepository.Upload: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("ImageRepository.Upload: %w", err)
	}

	return stream.FileID.(primitive.ObjectID).Hex(), nil
}

func (r *GridFSImageRepository) Download(_ context.Context, id string) ([]byte, string, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrNotFound
	}

	stream, err := r.bucket.OpenDownloadStream(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Download: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, "", fmt.Errorf("ImageRepository.Download: %w", err)
	}

	filename := ""
	if f := stream.GetFile(); f != nil {
		filename = f.Name
	}
	return data, filename, nil
}

func (r *GridFSImageRepository) Delete(_ context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	err = r.bucket.Delete(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ImageRepository.Delete: %w", err)
	}
	return nil
}

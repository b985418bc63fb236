package repository

import (
	"context"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PageRepository struct {
	collection *mongo.Collection
}

func NewPageRepository(collection *mongo.Collection) *PageRepository {
	return &PageRepository{collection: collection}
}

func (r *PageRepository) Create(ctx context.Context, page *models.MunicipalPage) error {
	page.ID = primitive.NewObjectID()
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	_, err := r.collection.InsertOne(ctx, page)
	return err
}

func (r *PageRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MunicipalPage, error) {
	var page models.MunicipalPage
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *PageRepository) FindByHandle(ctx context.Context, handle string) (*models.MunicipalPage, error) {
	var page models.MunicipalPage
	if err := r.collection.FindOne(ctx, bson.M{"handle": handle}).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FindByDepartment routes an issue's department tag to its owning page.
func (r *PageRepository) FindByDepartment(ctx context.Context, department string) (*models.MunicipalPage, error) {
	var page models.MunicipalPage
	err := r.collection.FindOne(ctx, bson.M{"department": department}).Decode(&page)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &page, nil
}

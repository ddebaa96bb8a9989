package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	requestDomain "github.com/localpro-market/service-booking/internal/domain/request"
	"github.com/localpro-market/service-booking/internal/platform/domain"
)

// RequestModel is the GORM model for the requests table.
type RequestModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ClientID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CategoryID     uuid.UUID `gorm:"type:uuid;not null"`
	CityID         uuid.UUID `gorm:"type:uuid;not null"`
	Title          string    `gorm:"size:150;not null"`
	Description    string    `gorm:"type:text;not null"`
	BudgetMinCents *int64
	BudgetMaxCents *int64
	Urgency        string    `gorm:"size:10;not null;default:''"`
	Status         string    `gorm:"size:20;index;not null"`
	Visibility     string    `gorm:"size:10;not null;default:'public'"`
	Version        int64     `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (RequestModel) TableName() string {
	return "requests"
}

// GormRequestRepository is the GORM-based implementation of RequestRepository.
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GormRequestRepository.
func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

// FindByID retrieves a request by its unique identifier.
func (r *GormRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*requestDomain.Request, error) {
	var model RequestModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if isNotFound(err) {
			return nil, domain.NewNotFoundError("Request", id.String())
		}
		return nil, fmt.Errorf("failed to find request by ID: %w", err)
	}
	return toDomainRequest(&model)
}

// FindByClientID retrieves requests posted by a client with pagination.
func (r *GormRequestRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*requestDomain.Request, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("client_id = ?", clientID), page, limit)
}

// ListOpen retrieves public requests that still accept offers.
func (r *GormRequestRepository) ListOpen(ctx context.Context, page, limit int) ([]*requestDomain.Request, int64, error) {
	scope := r.db.WithContext(ctx).Where("status = ? AND visibility = ?",
		string(requestDomain.StatusOpen), string(requestDomain.VisibilityPublic))
	return r.list(ctx, scope, page, limit)
}

func (r *GormRequestRepository) list(ctx context.Context, scope *gorm.DB, page, limit int) ([]*requestDomain.Request, int64, error) {
	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&RequestModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	var models []RequestModel
	if err := scope.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}

	requests := make([]*requestDomain.Request, len(models))
	for i := range models {
		req, err := toDomainRequest(&models[i])
		if err != nil {
			return nil, 0, err
		}
		requests[i] = req
	}
	return requests, total, nil
}

// Save persists a new request.
func (r *GormRequestRepository) Save(ctx context.Context, req *requestDomain.Request) error {
	if err := r.db.WithContext(ctx).Create(toRequestModel(req)).Error; err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// Update persists changes to an existing request with optimistic locking.
func (r *GormRequestRepository) Update(ctx context.Context, req *requestDomain.Request) error {
	model := toRequestModel(req)

	// IncrementVersion was called before Update, so the stored row is one version behind.
	expectedVersion := req.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&RequestModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":            model.Title,
			"description":      model.Description,
			"budget_min_cents": model.BudgetMinCents,
			"budget_max_cents": model.BudgetMaxCents,
			"urgency":          model.Urgency,
			"status":           model.Status,
			"visibility":       model.Visibility,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("request was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toRequestModel(req *requestDomain.Request) *RequestModel {
	return &RequestModel{
		ID:             req.ID(),
		ClientID:       req.ClientID(),
		CategoryID:     req.CategoryID(),
		CityID:         req.CityID(),
		Title:          req.Title(),
		Description:    req.Description(),
		BudgetMinCents: req.BudgetMinCents(),
		BudgetMaxCents: req.BudgetMaxCents(),
		Urgency:        string(req.Urgency()),
		Status:         string(req.Status()),
		Visibility:     string(req.Visibility()),
		Version:        req.Version(),
		CreatedAt:      req.CreatedAt(),
		UpdatedAt:      req.UpdatedAt(),
	}
}

func toDomainRequest(m *RequestModel) (*requestDomain.Request, error) {
	status, err := requestDomain.ParseRequestStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return requestDomain.ReconstructRequest(
		m.ID,
		m.ClientID,
		m.CategoryID,
		m.CityID,
		m.Title,
		m.Description,
		m.BudgetMinCents,
		m.BudgetMaxCents,
		requestDomain.Urgency(m.Urgency),
		status,
		requestDomain.Visibility(m.Visibility),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

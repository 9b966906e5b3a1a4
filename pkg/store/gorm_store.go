package store

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"faqbot/pkg/domain"
)

// GormStore implements Store using GORM + Postgres for deployments that
// want session content to survive a restart.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&ChatSessionModel{}, &DocumentModel{}, &WebsiteContentModel{}, &ChatMessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateChatSession stores a session.
func (s *GormStore) CreateChatSession(session domain.ChatSession) error {
	model := sessionToModel(session)
	return s.db.Create(&model).Error
}

// GetChatSession retrieves a session by identifier.
func (s *GormStore) GetChatSession(sessionID string) (domain.ChatSession, bool, error) {
	var model ChatSessionModel
	err := s.db.First(&model, "id = ?", sessionID).Error
	if err == gorm.ErrRecordNotFound {
		return domain.ChatSession{}, false, nil
	}
	if err != nil {
		return domain.ChatSession{}, false, err
	}
	return sessionFromModel(model), true, nil
}

// CreateDocument stores a document.
func (s *GormStore) CreateDocument(doc domain.Document) error {
	model := documentToModel(doc)
	return s.db.Create(&model).Error
}

// GetDocument retrieves a document by id.
func (s *GormStore) GetDocument(id string) (domain.Document, bool, error) {
	var model DocumentModel
	err := s.db.First(&model, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Document{}, false, nil
	}
	if err != nil {
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

// GetDocumentsBySession returns a session's documents in creation order.
func (s *GormStore) GetDocumentsBySession(sessionID string) ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Where("session_id = ?", sessionID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, model := range models {
		res = append(res, documentFromModel(model))
	}
	return res, nil
}

// UpdateDocumentEmbedding attaches the representative embedding vector.
func (s *GormStore) UpdateDocumentEmbedding(id string, embedding []float64) error {
	tx := s.db.Model(&DocumentModel{}).Where("id = ?", id).
		Update("embedding", datatypes.NewJSONSlice(embedding))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateWebsiteContent stores a scraped page record.
func (s *GormStore) CreateWebsiteContent(content domain.WebsiteContent) error {
	model := websiteToModel(content)
	return s.db.Create(&model).Error
}

// GetWebsiteContent retrieves a website content record by id.
func (s *GormStore) GetWebsiteContent(id string) (domain.WebsiteContent, bool, error) {
	var model WebsiteContentModel
	err := s.db.First(&model, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return domain.WebsiteContent{}, false, nil
	}
	if err != nil {
		return domain.WebsiteContent{}, false, err
	}
	return websiteFromModel(model), true, nil
}

// GetWebsiteContentBySession returns a session's scraped pages in creation order.
func (s *GormStore) GetWebsiteContentBySession(sessionID string) ([]domain.WebsiteContent, error) {
	var models []WebsiteContentModel
	if err := s.db.Where("session_id = ?", sessionID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.WebsiteContent, 0, len(models))
	for _, model := range models {
		res = append(res, websiteFromModel(model))
	}
	return res, nil
}

// UpdateWebsiteContentEmbedding attaches the representative embedding vector.
func (s *GormStore) UpdateWebsiteContentEmbedding(id string, embedding []float64) error {
	tx := s.db.Model(&WebsiteContentModel{}).Where("id = ?", id).
		Update("embedding", datatypes.NewJSONSlice(embedding))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendChatMessage records a message linked to a session.
func (s *GormStore) AppendChatMessage(msg domain.ChatMessage) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// GetChatMessagesBySession returns messages ordered by timestamp ascending.
func (s *GormStore) GetChatMessagesBySession(sessionID string) ([]domain.ChatMessage, error) {
	var models []ChatMessageModel
	if err := s.db.Where("session_id = ?", sessionID).Order("created_at asc").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.ChatMessage, 0, len(models))
	for _, model := range models {
		res = append(res, messageFromModel(model))
	}
	return res, nil
}

func sessionToModel(s domain.ChatSession) ChatSessionModel {
	return ChatSessionModel{
		ID:         s.ID,
		APIKey:     s.APIKey,
		WebsiteURL: s.WebsiteURL,
		CreatedAt:  s.CreatedAt,
	}
}

func sessionFromModel(m ChatSessionModel) domain.ChatSession {
	return domain.ChatSession{
		ID:         m.ID,
		APIKey:     m.APIKey,
		WebsiteURL: m.WebsiteURL,
		CreatedAt:  m.CreatedAt,
	}
}

func documentToModel(d domain.Document) DocumentModel {
	model := DocumentModel{
		ID:        d.ID,
		SessionID: d.SessionID,
		Filename:  d.Filename,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if d.Embedding != nil {
		model.Embedding = datatypes.NewJSONSlice(d.Embedding)
	}
	return model
}

func documentFromModel(m DocumentModel) domain.Document {
	return domain.Document{
		ID:        m.ID,
		SessionID: m.SessionID,
		Filename:  m.Filename,
		Content:   m.Content,
		Embedding: []float64(m.Embedding),
		CreatedAt: m.CreatedAt,
	}
}

func websiteToModel(c domain.WebsiteContent) WebsiteContentModel {
	model := WebsiteContentModel{
		ID:        c.ID,
		SessionID: c.SessionID,
		URL:       c.URL,
		Title:     c.Title,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.Embedding != nil {
		model.Embedding = datatypes.NewJSONSlice(c.Embedding)
	}
	return model
}

func websiteFromModel(m WebsiteContentModel) domain.WebsiteContent {
	return domain.WebsiteContent{
		ID:        m.ID,
		SessionID: m.SessionID,
		URL:       m.URL,
		Title:     m.Title,
		Content:   m.Content,
		Embedding: []float64(m.Embedding),
		CreatedAt: m.CreatedAt,
	}
}

func messageToModel(msg domain.ChatMessage) ChatMessageModel {
	return ChatMessageModel{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}

func messageFromModel(m ChatMessageModel) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

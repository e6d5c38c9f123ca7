package Controllers

import (
	"fmt"
	"log"
	"strings"

	"FieldOps/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const duplicateClientMessage = "A client with that name already exists."

// ClientController handles client endpoints
type ClientController struct {
	DB *gorm.DB
}

func NewClientController(db *gorm.DB) *ClientController {
	return &ClientController{DB: db}
}

// GetClients lists clients ordered by name, filtered by a case-insensitive name search
func (c *ClientController) GetClients(ctx *fiber.Ctx) error {
	query := c.DB.WithContext(ctx.UserContext()).
		Preload("Regulations").
		Preload("MonitoringFrequencies")

	if search := strings.TrimSpace(ctx.Query("search")); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var clients []Models.Client
	if err := query.Order("name ASC").Find(&clients).Error; err != nil {
		return dbError(ctx, "Failed to retrieve clients", err)
	}
	return ctx.JSON(clients)
}

func (c *ClientController) load(ctx *fiber.Ctx, id uint) (Models.Client, error) {
	var client Models.Client
	err := c.DB.WithContext(ctx.UserContext()).
		Preload("Regulations").
		Preload("MonitoringFrequencies").
		Preload("DatabaseType.DatabaseType").
		First(&client, id).Error
	return client, err
}

// GetClient retrieves a client with its regulations, frequencies and database type
func (c *ClientController) GetClient(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}
	client, err := c.load(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Client")
		}
		return dbError(ctx, "Failed to retrieve client", err)
	}
	return ctx.JSON(client)
}

func clientColumns(req Models.ClientRequest) map[string]interface{} {
	columns := map[string]interface{}{
		"name":                  strings.TrimSpace(req.Name),
		"primary_contact_name":  nullable(req.PrimaryContactName),
		"primary_contact_email": nullable(req.PrimaryContactEmail),
		"primary_contact_phone": nullable(req.PrimaryContactPhone),
		"ppe":                   nullable(req.PPE),
		"notes":                 nullable(req.Notes),
	}
	if req.Active != nil {
		columns["active"] = *req.Active
	}
	return columns
}

// saveClientAssociations upserts the database type on client_id and replaces
// the frequency and regulation links.
func saveClientAssociations(tx *gorm.DB, client *Models.Client, req Models.ClientRequest) error {
	if req.DatabaseTypeID != nil {
		link := Models.ClientDatabaseType{ClientID: client.ID, DatabaseTypeID: *req.DatabaseTypeID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"database_type_id"}),
		}).Create(&link).Error
		if err != nil {
			return fmt.Errorf("save database type: %w", err)
		}
	} else if err := tx.Where("client_id = ?", client.ID).Delete(&Models.ClientDatabaseType{}).Error; err != nil {
		return fmt.Errorf("clear database type: %w", err)
	}

	var frequencies []Models.MonitoringFrequency
	if len(req.MonitoringFrequencyIDs) > 0 {
		if err := tx.Where("id IN ?", req.MonitoringFrequencyIDs).Find(&frequencies).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(client).Association("MonitoringFrequencies").Replace(frequencies); err != nil {
		return fmt.Errorf("save monitoring frequencies: %w", err)
	}

	var regulations []Models.Regulation
	if len(req.RegulationIDs) > 0 {
		if err := tx.Where("id IN ?", req.RegulationIDs).Find(&regulations).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(client).Association("Regulations").Replace(regulations); err != nil {
		return fmt.Errorf("save regulations: %w", err)
	}
	return nil
}

// restoreDeletedClient brings back a soft deleted client holding the same
// name, since the unique name index still covers deleted rows.
func restoreDeletedClient(tx *gorm.DB, req Models.ClientRequest, active bool) (*Models.Client, error) {
	var deleted Models.Client
	err := tx.Unscoped().
		Where("name = ? AND deleted_at IS NOT NULL", strings.TrimSpace(req.Name)).
		First(&deleted).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	columns := clientColumns(req)
	columns["active"] = active
	columns["deleted_at"] = nil
	if err := tx.Unscoped().Model(&deleted).Omit(clause.Associations).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("restore client: %w", err)
	}
	return &deleted, nil
}

func (c *ClientController) saveError(ctx *fiber.Ctx, errMsg string, err error) error {
	if Models.IsDuplicateKeyError(err) {
		return errorJSON(ctx, fiber.StatusConflict, "Duplicate client", duplicateClientMessage)
	}
	return dbError(ctx, errMsg, err)
}

// CreateClient creates a client and its associations in one transaction
func (c *ClientController) CreateClient(ctx *fiber.Ctx) error {
	var req Models.ClientRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(ctx, "Client name is required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	client := Models.Client{
		Name:                strings.TrimSpace(req.Name),
		Active:              &active,
		PrimaryContactName:  nullable(req.PrimaryContactName),
		PrimaryContactEmail: nullable(req.PrimaryContactEmail),
		PrimaryContactPhone: nullable(req.PrimaryContactPhone),
		PPE:                 nullable(req.PPE),
		Notes:               nullable(req.Notes),
	}

	tx := c.DB.WithContext(ctx.UserContext()).Begin()
	restored, err := restoreDeletedClient(tx, req, active)
	if err != nil {
		tx.Rollback()
		return dbError(ctx, "Failed to create client", err)
	}
	if restored != nil {
		client = *restored
	} else if err := tx.Omit(clause.Associations).Create(&client).Error; err != nil {
		tx.Rollback()
		return c.saveError(ctx, "Failed to create client", err)
	}
	if err := saveClientAssociations(tx, &client, req); err != nil {
		tx.Rollback()
		return c.saveError(ctx, "Failed to create client", err)
	}
	if err := tx.Commit().Error; err != nil {
		return c.saveError(ctx, "Failed to create client", err)
	}
	log.Printf("Client %q created", client.Name)

	created, err := c.load(ctx, client.ID)
	if err != nil {
		return dbError(ctx, "Failed to retrieve client", err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// UpdateClient updates a client and replaces its associations
func (c *ClientController) UpdateClient(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}

	var client Models.Client
	if err := c.DB.WithContext(ctx.UserContext()).First(&client, id).Error; err != nil {
		if isNotFound(err) {
			return notFound(ctx, "Client")
		}
		return dbError(ctx, "Failed to retrieve client", err)
	}

	var req Models.ClientRequest
	if ok, err := bind(ctx, &req); !ok {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(ctx, "Client name is required")
	}

	tx := c.DB.WithContext(ctx.UserContext()).Begin()
	if err := tx.Model(&client).Omit(clause.Associations).Updates(clientColumns(req)).Error; err != nil {
		tx.Rollback()
		return c.saveError(ctx, "Failed to update client", err)
	}
	if err := saveClientAssociations(tx, &client, req); err != nil {
		tx.Rollback()
		return c.saveError(ctx, "Failed to update client", err)
	}
	if err := tx.Commit().Error; err != nil {
		return c.saveError(ctx, "Failed to update client", err)
	}

	updated, err := c.load(ctx, id)
	if err != nil {
		return dbError(ctx, "Failed to retrieve client", err)
	}
	return ctx.JSON(updated)
}

// DeleteClient soft deletes a client
func (c *ClientController) DeleteClient(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "Invalid client ID")
	}

	var client Models.Client
	if err := c.DB.WithContext(ctx.UserContext()).First(&client, id).Error; err != nil {
		return notFound(ctx, "Client")
	}
	if err := c.DB.WithContext(ctx.UserContext()).Delete(&client).Error; err != nil {
		return dbError(ctx, "Failed to delete client", err)
	}
	return ctx.JSON(fiber.Map{"message": "Client deleted successfully"})
}

package Apis

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"Atrium/Models"
)

// Directory reads for the presentation layer. The lifecycle engine
// itself never touches these handlers; it consumes the catalog only
// through Lifecycle.TemplateSource.

func GetSites(c *fiber.Ctx) error {
	var sites []Models.Site
	if err := Models.DB.Order("name ASC").Find(&sites).Error; err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve sites"})
	}
	return c.JSON(sites)
}

func CreateSite(c *fiber.Ctx) error {
	var input Models.Site
	if err := c.BodyParser(&input); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name is required"})
	}

	site := Models.Site{Name: input.Name, Address: input.Address, Timezone: input.Timezone}
	if err := Models.DB.Create(&site).Error; err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A site with this name already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(site)
}

// GetTemplates lists templates, optionally filtered to one site's
// eligibility via ?site_id=.
func GetTemplates(c *fiber.Ctx) error {
	query := Models.DB.Model(&Models.TaskTemplate{}).Preload("Sites")
	if siteParam := c.Query("site_id"); siteParam != "" {
		siteID, err := strconv.Atoi(siteParam)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid site ID"})
		}
		query = query.
			Joins("JOIN template_sites ON template_sites.template_id = task_templates.id").
			Where("template_sites.site_id = ?", siteID)
	}

	var templates []Models.TaskTemplate
	if err := query.Order("service ASC, display_order ASC").Find(&templates).Error; err != nil {
		log.Println(err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve templates"})
	}
	return c.JSON(templates)
}

type CreateTemplateInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Service      string `json:"service"`
	DisplayOrder int    `json:"display_order"`
	ImagePath    string `json:"image_path"`
	SiteIDs      []uint `json:"site_ids"`
}

func CreateTemplate(c *fiber.Ctx) error {
	var input CreateTemplateInput
	if err := c.BodyParser(&input); err != nil {
		log.Println(err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if input.Title == "" || input.Service == "" || len(input.SiteIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title, service and at least one site are required"})
	}

	template := Models.TaskTemplate{
		Title:        input.Title,
		Description:  input.Description,
		Service:      input.Service,
		DisplayOrder: input.DisplayOrder,
		Active:       true,
		ImagePath:    input.ImagePath,
	}
	for _, siteID := range input.SiteIDs {
		template.Sites = append(template.Sites, Models.TemplateSite{SiteID: siteID})
	}
	if err := Models.DB.Create(&template).Error; err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create template"})
	}
	return c.Status(fiber.StatusCreated).JSON(template)
}

package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/progress"
)

type ProgressController struct {
	svc Services
}

type progressView struct {
	Code   string           `json:"code"`
	Status progress.Status  `json:"status"`
	Record *progress.Record `json:"record"`
}

func (pc *ProgressController) Get(c *fiber.Ctx) error {
	m, rec, err := pc.svc.Progress.Get(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	return OK(c, progressView{Code: m.Code, Status: progress.StatusOf(rec), Record: rec})
}

type updateProgressRequest struct {
	Status string `json:"status"`
	Score  *int   `json:"score"`
	Note   string `json:"note"`
}

func (pc *ProgressController) Update(c *fiber.Ctx) error {
	var req updateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest("invalid progress body: " + err.Error())
	}
	rec, err := pc.svc.Progress.Update(c.UserContext(), c.Params("ref"), progress.Status(req.Status),
		progress.Change{Score: req.Score, Note: req.Note})
	if err != nil {
		return err
	}
	return OK(c, rec)
}

func (pc *ProgressController) AddNote(c *fiber.Ctx) error {
	var req struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return BadRequest("invalid note body: " + err.Error())
	}
	if req.Note == "" {
		return BadRequest("note is required")
	}
	rec, err := pc.svc.Progress.AddNote(c.UserContext(), c.Params("ref"), req.Note)
	if err != nil {
		return err
	}
	return OK(c, rec)
}

func (pc *ProgressController) Reset(c *fiber.Ctx) error {
	if err := pc.svc.Progress.Reset(c.UserContext(), c.Params("ref")); err != nil {
		return err
	}
	return NoContent(c)
}

// List answers GET /progress, filtered by ?status= when given.
func (pc *ProgressController) List(c *fiber.Ctx) error {
	entries, err := pc.svc.Progress.List(c.UserContext(), progress.Status(c.Query("status")))
	if err != nil {
		return err
	}
	return OK(c, entries, fiber.Map{"count": len(entries)})
}

func (pc *ProgressController) Summary(c *fiber.Ctx) error {
	sum, err := pc.svc.Progress.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return OK(c, sum)
}

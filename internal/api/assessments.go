package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/assessment"
)

type AssessmentController struct {
	svc Services
}

func (ac *AssessmentController) Get(c *fiber.Ctx) error {
	ev, err := ac.svc.Assessments.ForModule(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	if ev == nil {
		return fiber.NewError(fiber.StatusNotFound, "no assessment recorded for "+c.Params("ref"))
	}
	return OK(c, ev)
}

func (ac *AssessmentController) Record(c *fiber.Ctx) error {
	var ev assessment.Evaluation
	if err := c.BodyParser(&ev); err != nil {
		return BadRequest("invalid assessment body: " + err.Error())
	}
	saved, err := ac.svc.Assessments.Record(c.UserContext(), c.Params("ref"), ev)
	if err != nil {
		return err
	}
	return OK(c, saved)
}

func (ac *AssessmentController) Delete(c *fiber.Ctx) error {
	if err := ac.svc.Assessments.Delete(c.UserContext(), c.Params("ref")); err != nil {
		return err
	}
	return NoContent(c)
}

func (ac *AssessmentController) Report(c *fiber.Ctx) error {
	rows, err := ac.svc.Assessments.Report(c.UserContext())
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []assessment.ReportRow{}
	}
	return OK(c, rows)
}

package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/llm"
)

type AdvisorController struct {
	svc Services
}

// Suggest asks the LLM for prerequisites of :ref. With ?apply=true the
// accepted ones are added right away.
func (ac *AdvisorController) Suggest(c *fiber.Ctx) error {
	if ac.svc.Advisor == nil {
		return llm.ErrNotConfigured
	}
	adv, err := ac.svc.Advisor.Suggest(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	if !c.QueryBool("apply") {
		return OK(c, adv)
	}
	applied, err := ac.svc.Advisor.Apply(c.UserContext(), adv)
	if err != nil {
		return err
	}
	return OK(c, fiber.Map{"advice": adv, "applied": applied})
}

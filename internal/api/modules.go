package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/curriculum"
)

type ModuleController struct {
	svc Services
}

func (mc *ModuleController) resolve(c *fiber.Ctx, param string) (*curriculum.Module, error) {
	return curriculum.Resolve(c.UserContext(), mc.svc.Modules, c.Params(param))
}

// List returns all modules, or those matching ?q= or ?level=.
func (mc *ModuleController) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var (
		mods []curriculum.Module
		err  error
	)
	switch {
	case c.Query("q") != "":
		mods, err = mc.svc.Modules.Search(ctx, c.Query("q"))
	case c.Query("level") != "":
		level, perr := strconv.Atoi(c.Query("level"))
		if perr != nil {
			return BadRequest("level must be a number")
		}
		mods, err = mc.svc.Modules.ByLevel(ctx, level)
	default:
		mods, err = mc.svc.Modules.All(ctx)
	}
	if err != nil {
		return err
	}
	if mods == nil {
		mods = []curriculum.Module{}
	}
	return OK(c, mods, fiber.Map{"total": len(mods)})
}

func (mc *ModuleController) Get(c *fiber.Ctx) error {
	m, err := mc.resolve(c, "ref")
	if err != nil {
		return err
	}
	return OK(c, m)
}

// Upsert creates a module or updates the one with the same code.
func (mc *ModuleController) Upsert(c *fiber.Ctx) error {
	var m curriculum.Module
	if err := c.BodyParser(&m); err != nil {
		return BadRequest("invalid module body: " + err.Error())
	}
	m.ID = ""
	created, err := mc.svc.Modules.Upsert(c.UserContext(), &m)
	if err != nil {
		return err
	}
	if created {
		return Created(c, m)
	}
	return OK(c, m)
}

// Delete refuses while other modules depend on the target.
func (mc *ModuleController) Delete(c *fiber.Ctx) error {
	m, err := mc.resolve(c, "ref")
	if err != nil {
		return err
	}
	if err := mc.svc.Modules.Delete(c.UserContext(), m.ID); err != nil {
		return err
	}
	return NoContent(c)
}

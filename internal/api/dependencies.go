package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/curriculum"
	"github.com/ciclofficina/tracker/internal/depgraph"
)

type DependencyController struct {
	svc Services
}

func (dc *DependencyController) resolve(c *fiber.Ctx, param string) (*curriculum.Module, error) {
	return curriculum.Resolve(c.UserContext(), dc.svc.Modules, c.Params(param))
}

type addDependencyRequest struct {
	Prerequisite string                    `json:"prerequisite"`
	Type         curriculum.DependencyType `json:"type"`
}

// Add declares that :ref requires body.prerequisite.
func (dc *DependencyController) Add(c *fiber.Ctx) error {
	var req addDependencyRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest("invalid dependency body: " + err.Error())
	}
	if req.Type == "" {
		req.Type = curriculum.Mandatory
	}
	m, err := dc.resolve(c, "ref")
	if err != nil {
		return err
	}
	prereq, err := curriculum.Resolve(c.UserContext(), dc.svc.Modules, req.Prerequisite)
	if err != nil {
		return err
	}
	edge, err := dc.svc.Engine.AddDependency(c.UserContext(), m.ID, prereq.ID, req.Type)
	if err != nil {
		return err
	}
	return Created(c, edge)
}

func (dc *DependencyController) Remove(c *fiber.Ctx) error {
	if err := dc.svc.Engine.RemoveDependency(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return NoContent(c)
}

func (dc *DependencyController) RemoveBetween(c *fiber.Ctx) error {
	m, err := dc.resolve(c, "ref")
	if err != nil {
		return err
	}
	prereq, err := dc.resolve(c, "prereq")
	if err != nil {
		return err
	}
	removed, err := dc.svc.Engine.RemoveBetween(c.UserContext(), m.ID, prereq.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fiber.NewError(fiber.StatusNotFound, m.Code+" does not depend on "+prereq.Code)
	}
	return NoContent(c)
}

func (dc *DependencyController) Prerequisites(c *fiber.Ctx) error {
	return dc.links(c, dc.svc.Engine.Prerequisites)
}

func (dc *DependencyController) Dependents(c *fiber.Ctx) error {
	return dc.links(c, dc.svc.Engine.Dependents)
}

func (dc *DependencyController) links(c *fiber.Ctx, list func(ctx context.Context, id string) ([]depgraph.Link, error)) error {
	m, err := dc.resolve(c, "ref")
	if err != nil {
		return err
	}
	links, err := list(c.UserContext(), m.ID)
	if err != nil {
		return err
	}
	if links == nil {
		links = []depgraph.Link{}
	}
	return OK(c, links)
}

// Transitive returns every direct and indirect prerequisite.
func (dc *DependencyController) Transitive(c *fiber.Ctx) error {
	m, err := dc.resolve(c, "ref")
	if err != nil {
		return err
	}
	mods, err := dc.svc.Engine.TransitiveDependencies(c.UserContext(), m.ID)
	if err != nil {
		return err
	}
	if mods == nil {
		mods = []curriculum.Module{}
	}
	return OK(c, mods)
}

func (dc *DependencyController) CanStart(c *fiber.Ctx) error {
	m, err := dc.resolve(c, "ref")
	if err != nil {
		return err
	}
	u, err := dc.svc.Engine.CanStartModule(c.UserContext(), m.ID)
	if err != nil {
		return err
	}
	return OK(c, u)
}

func (dc *DependencyController) Goal(c *fiber.Ctx) error {
	p, err := dc.svc.Goals.GoalPath(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	return OK(c, p)
}

// Order returns the topological order, or waves with ?levels=true.
func (dc *DependencyController) Order(c *fiber.Ctx) error {
	if c.QueryBool("levels") {
		lv, err := dc.svc.Engine.TopologicalLevels(c.UserContext())
		if err != nil {
			return err
		}
		return OK(c, lv)
	}
	ord, err := dc.svc.Engine.TopologicalOrder(c.UserContext())
	if err != nil {
		return err
	}
	return OK(c, ord)
}

func (dc *DependencyController) Available(c *fiber.Ctx) error {
	return dc.states(c, dc.svc.Engine.Available)
}

func (dc *DependencyController) Blocked(c *fiber.Ctx) error {
	return dc.states(c, dc.svc.Engine.Blocked)
}

func (dc *DependencyController) states(c *fiber.Ctx, list func(context.Context) ([]depgraph.ModuleState, error)) error {
	states, err := list(c.UserContext())
	if err != nil {
		return err
	}
	if states == nil {
		states = []depgraph.ModuleState{}
	}
	return OK(c, states)
}

func (dc *DependencyController) Check(c *fiber.Ctx) error {
	rep, err := dc.svc.Engine.Check(c.UserContext())
	if err != nil {
		return err
	}
	return OK(c, rep, fiber.Map{"ok": rep.OK()})
}

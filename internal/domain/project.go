package domain

import (
	"fmt"
	"strings"
)

// Project is the static per-brand configuration used to steer generation.
type Project struct {
	ID        string
	Name      string
	Voice     string
	Language  string
	Audience  string
	Goal      string
	Topics    string
	Forbidden string
	Style     string
	Platforms []string
}

// Target is one project/platform combination drafts are generated for.
type Target struct {
	ProjectID string
	Platform  string
}

// Catalog is the immutable set of configured projects and their aliases.
type Catalog struct {
	order           []string
	projects        map[string]Project
	projectAliases  map[string]string
	platformAliases map[string]string
}

// NewCatalog copies the inputs so later mutation by the caller has no effect.
func NewCatalog(projects []Project, projectAliases, platformAliases map[string]string) (*Catalog, error) {
	c := &Catalog{
		projects:        make(map[string]Project, len(projects)),
		projectAliases:  make(map[string]string, len(projectAliases)),
		platformAliases: make(map[string]string, len(platformAliases)),
	}

	for _, p := range projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project without id")
		}
		if _, dup := c.projects[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project %s", p.ID)
		}
		p.Platforms = append([]string(nil), p.Platforms...)
		if len(p.Platforms) == 0 {
			p.Platforms = []string{"telegram"}
		}
		c.projects[p.ID] = p
		c.order = append(c.order, p.ID)
		c.projectAliases[strings.ToLower(p.ID)] = p.ID
	}

	for alias, id := range projectAliases {
		if _, ok := c.projects[id]; !ok {
			return nil, fmt.Errorf("alias %q points to unknown project %s", alias, id)
		}
		c.projectAliases[strings.ToLower(alias)] = id
	}
	for alias, platform := range platformAliases {
		c.platformAliases[strings.ToLower(alias)] = platform
	}

	return c, nil
}

// Project returns a copy of the project with the given id.
func (c *Catalog) Project(id string) (Project, bool) {
	p, ok := c.projects[id]
	if !ok {
		return Project{}, false
	}
	p.Platforms = append([]string(nil), p.Platforms...)
	return p, true
}

// Name returns the display name, falling back to the id.
func (c *Catalog) Name(id string) string {
	if p, ok := c.projects[id]; ok && p.Name != "" {
		return p.Name
	}
	return id
}

// Projects returns all projects in configuration order.
func (c *Catalog) Projects() []Project {
	out := make([]Project, 0, len(c.order))
	for _, id := range c.order {
		p, _ := c.Project(id)
		out = append(out, p)
	}
	return out
}

// Targets expands an optional project/platform filter into generation targets.
func (c *Catalog) Targets(projectID, platform string) []Target {
	if projectID != "" && platform != "" {
		return []Target{{ProjectID: projectID, Platform: platform}}
	}

	var targets []Target
	for _, id := range c.order {
		if projectID != "" && id != projectID {
			continue
		}
		for _, pl := range c.projects[id].Platforms {
			targets = append(targets, Target{ProjectID: id, Platform: pl})
		}
	}
	return targets
}

// ParseTarget reads a free-form "project platform" request such as "личный тг".
// Two-word project aliases win over single words.
func (c *Catalog) ParseTarget(text string) (projectID, platform string) {
	words := strings.Fields(strings.ToLower(text))

	for i := 0; i+1 < len(words); i++ {
		if id, ok := c.projectAliases[words[i]+" "+words[i+1]]; ok {
			projectID = id
			break
		}
	}
	if projectID == "" {
		for _, w := range words {
			if id, ok := c.projectAliases[w]; ok {
				projectID = id
				break
			}
		}
	}

	for _, w := range words {
		if pl, ok := c.platformAliases[w]; ok {
			platform = pl
			break
		}
	}

	return projectID, platform
}

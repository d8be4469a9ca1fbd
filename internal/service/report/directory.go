package report

import (
	"strings"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// Directory maps stored staff references (user ids) to display names.
// References that are not user ids, such as names typed in before staff had
// accounts, resolve to themselves.
type Directory map[string]string

func NewDirectory(users []*model.User) Directory {
	dir := make(Directory, len(users))
	for _, u := range users {
		dir[u.ID.Hex()] = u.Name
	}
	return dir
}

func (d Directory) Name(ref string) string {
	if name, ok := d[ref]; ok && name != "" {
		return name
	}
	return ref
}

// References reports whether any staff field of p points at staff, matched
// either by stored reference or case-insensitively by display name.
func (d Directory) References(p *model.Patient, staff string) bool {
	refs := []string{
		p.Personal.Reference,
		p.Counselling.Counsellor,
		p.Surgery.Doctor,
		p.Surgery.SeniorTech,
		p.Surgery.ImplanterRight,
		p.Surgery.ImplanterLeft,
		p.Surgery.GraftingPerson,
	}
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if ref == staff || strings.EqualFold(d.Name(ref), staff) {
			return true
		}
	}
	return false
}

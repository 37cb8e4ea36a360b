package crawler

import "github.com/pevans/riuff/item"

// fieldSetter stores one metadata table value in a record.
type fieldSetter func(r *item.Record, value string)

func setString(field func(r *item.Record) **string) fieldSetter {
	return func(r *item.Record, value string) {
		*field(r) = &value
	}
}

func appendString(field func(r *item.Record) *[]string) fieldSetter {
	return func(r *item.Record, value string) {
		list := field(r)
		*list = append(*list, value)
	}
}

// setAdvisor keeps the first advisor row as the advisor and treats every
// later one as a co-advisor.
func setAdvisor(r *item.Record, value string) {
	if r.Advisor == nil {
		r.Advisor = &value
		return
	}
	r.CoAdvisors = append(r.CoAdvisors, value)
}

// fieldSetters maps the Dublin Core identifiers of the metadata table to the
// record attribute they fill. Identifiers not listed here are ignored.
var fieldSetters = buildFieldSetters()

func buildFieldSetters() map[string]fieldSetter {
	routes := []struct {
		keys []string
		set  fieldSetter
	}{
		{[]string{"dc.contributor.author"}, func(r *item.Record, v string) { r.Author = v }},
		{[]string{"dc.title[pt_BR]"}, func(r *item.Record, v string) { r.Title = v }},
		{[]string{"dc.date.available"}, setString(func(r *item.Record) **string { return &r.DateAvailable })},
		{[]string{"dc.date.issued"}, setString(func(r *item.Record) **string { return &r.DateIssued })},
		{[]string{"dc.identifier.citation[pt_BR]", "dc.identifier.citation"}, setString(func(r *item.Record) **string { return &r.Citation })},
		{[]string{"dc.description.abstract[pt_BR]", "dc.description.abstract"}, setString(func(r *item.Record) **string { return &r.Abstract })},
		{[]string{"dc.language.iso[pt_BR]"}, setString(func(r *item.Record) **string { return &r.LanguageISO })},
		{[]string{"dc.rights[pt_BR]"}, setString(func(r *item.Record) **string { return &r.Rights })},
		{[]string{"dc.subject.keyword[pt_BR]"}, appendString(func(r *item.Record) *[]string { return &r.Keywords })},
		{[]string{"dc.subject.keywordother[pt_BR]"}, appendString(func(r *item.Record) *[]string { return &r.AdditionalKeywords })},
		{[]string{"dc.subject.descriptor[pt_BR]"}, appendString(func(r *item.Record) *[]string { return &r.Descriptors })},
		{[]string{"dc.degree.level[pt_BR]"}, setString(func(r *item.Record) **string { return &r.DegreeLevel })},
		{[]string{"dc.degree.grantor[pt_BR]"}, setString(func(r *item.Record) **string { return &r.DegreeGrantor })},
		{[]string{"dc.degree.department[pt_BR]"}, setString(func(r *item.Record) **string { return &r.DegreeDepartment })},
		{[]string{"dc.degree.date[pt_BR]", "dc.degree.date"}, setString(func(r *item.Record) **string { return &r.DegreeDate })},
		{[]string{"dc.degree.local[pt_BR]"}, setString(func(r *item.Record) **string { return &r.DegreeLocal })},
		{[]string{"dc.degree.curso[pt_BR]"}, setString(func(r *item.Record) **string { return &r.DegreeProgram })},
		{[]string{"dc.identifier.vinculation[pt_BR]"}, setString(func(r *item.Record) **string { return &r.Vinculation })},
		{[]string{"dc.description.sponsorship[pt_BR]"}, setString(func(r *item.Record) **string { return &r.Sponsorship })},
		{[]string{"dc.contributor.advisor1", "dc.contributor.advisor"}, setAdvisor},
		{[]string{"dc.contributor.advisor-co1", "dc.contributor.advisor-co2"}, appendString(func(r *item.Record) *[]string { return &r.CoAdvisors })},
		{
			[]string{
				"dc.contributor.members",
				"dc.contributor.referee1",
				"dc.contributor.referee2",
				"dc.contributor.referee3",
				"dc.contributor.referee4",
			},
			appendString(func(r *item.Record) *[]string { return &r.BoardMembers }),
		},
		{[]string{"dc.rights.license[pt_BR]"}, setString(func(r *item.Record) **string { return &r.RightsLicense })},
		{[]string{"dc.description.physical[pt_BR]"}, setString(func(r *item.Record) **string { return &r.PhysicalDescription })},
	}

	setters := make(map[string]fieldSetter)
	for _, route := range routes {
		for _, key := range route.keys {
			setters[key] = route.set
		}
	}
	return setters
}

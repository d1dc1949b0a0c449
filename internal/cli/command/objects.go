package command

import (
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/lwm2m-seccfg/internal/cli/output"
	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// ObjectsCommand returns the objects command.
func ObjectsCommand() *cli.Command {
	return &cli.Command{
		Name:      "objects",
		Aliases:   []string{"obj"},
		Usage:     "Browse the LwM2M object model catalog",
		ArgsUsage: "[ID,ID,...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number, starting at 0",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Value: 10,
				Usage: "Page size (max 1000)",
			},
			&cli.StringFlag{
				Name:  "search",
				Usage: "Filter by name substring or exact object id",
			},
			&cli.StringFlag{
				Name:  "sort",
				Value: "id",
				Usage: "Sort property: id or name",
			},
			&cli.StringFlag{
				Name:  "order",
				Value: "ASC",
				Usage: "Sort order: ASC or DESC",
			},
		},
		Action: objectsAction,
	}
}

type objectList []domain.ObjectLwM2M

// Table implements output.Tabler.
func (l objectList) Table(wide bool) *output.Table {
	t := output.NewTable("ID", "NAME", "MULTIPLE", "MANDATORY", "INSTANCES")
	if wide {
		t.Headers = append(t.Headers, "RESOURCES")
	}
	for _, o := range l {
		resources := 0
		for _, inst := range o.Instances {
			resources += len(inst.Resources)
		}
		if wide {
			t.AddRow(o.ID, o.Name, o.Multiple, o.Mandatory, len(o.Instances), resources)
		} else {
			t.AddRow(o.ID, o.Name, o.Multiple, o.Mandatory, len(o.Instances))
		}
	}
	return t
}

func objectsAction(c *cli.Context) error {
	if ids := c.Args().First(); ids != "" {
		var objects objectList
		if err := getJSON(c, apiPrefix+"/deviceProfile/"+url.PathEscape(ids), &objects); err != nil {
			return err
		}
		return render(c, objects)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(c.Int("page")))
	q.Set("pageSize", strconv.Itoa(c.Int("page-size")))
	q.Set("sortProperty", c.String("sort"))
	q.Set("sortOrder", c.String("order"))
	if s := c.String("search"); s != "" {
		q.Set("textSearch", s)
	}

	var page domain.PageData[domain.ObjectLwM2M]
	if err := getJSON(c, apiPrefix+"/deviceProfile/objects?"+q.Encode(), &page); err != nil {
		return err
	}
	if structured(c) {
		return render(c, page)
	}
	if err := render(c, objectList(page.Data)); err != nil {
		return err
	}
	printf(c, "\nPage %d of %d, %d objects total\n", c.Int("page")+1, max(page.TotalPages, 1), page.TotalElements)
	return nil
}

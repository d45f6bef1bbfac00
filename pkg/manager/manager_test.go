package manager

import (
	"strings"
	"testing"
)

type recordingResource struct {
	name string
	log  *[]string
}

func (r *recordingResource) MustOpen() { *r.log = append(*r.log, "open "+r.name) }
func (r *recordingResource) Close()    { *r.log = append(*r.log, "close "+r.name) }

type resourcePlugin struct{ res *recordingResource }

func (p *resourcePlugin) Name() string                  { return p.res.name }
func (p *resourcePlugin) MustCreateResource() Resource { return p.res }

type recordingComponent struct {
	name string
	log  *[]string
}

func (c *recordingComponent) Start() error    { *c.log = append(*c.log, "start "+c.name); return nil }
func (c *recordingComponent) Stop() error     { *c.log = append(*c.log, "stop "+c.name); return nil }
func (c *recordingComponent) GetName() string { return c.name }

type componentPlugin struct {
	c    *recordingComponent
	skip bool
}

func (p *componentPlugin) Name() string { return p.c.name }
func (p *componentPlugin) MustCreateComponent(*Dependencies) Component {
	if p.skip {
		return nil
	}
	return p.c
}

func withCleanRegistry(t *testing.T) {
	t.Helper()
	saved := defaultRegistry
	defaultRegistry = &registry{}
	t.Cleanup(func() { defaultRegistry = saved })
}

func TestLifecycleOrder(t *testing.T) {
	withCleanRegistry(t)
	var log []string
	RegisterResourcePlugin(&resourcePlugin{res: &recordingResource{name: "db", log: &log}})
	RegisterResourcePlugin(&resourcePlugin{res: &recordingResource{name: "cache", log: &log}})
	RegisterComponentPlugin(&componentPlugin{c: &recordingComponent{name: "worker", log: &log}})
	RegisterComponentPlugin(&componentPlugin{c: &recordingComponent{name: "sweeper", log: &log}, skip: true})
	RegisterComponentPlugin(&componentPlugin{c: &recordingComponent{name: "consumer", log: &log}})

	MustInitResources()
	MustInitComponents(&Dependencies{})
	Shutdown()
	CloseResources()

	want := "open db,open cache,start worker,start consumer,stop consumer,stop worker,close cache,close db"
	if got := strings.Join(log, ","); got != want {
		t.Fatalf("order:\n got %s\nwant %s", got, want)
	}
}

func TestDuplicatePluginPanics(t *testing.T) {
	withCleanRegistry(t)
	var log []string
	RegisterResourcePlugin(&resourcePlugin{res: &recordingResource{name: "db", log: &log}})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	RegisterResourcePlugin(&resourcePlugin{res: &recordingResource{name: "db", log: &log}})
}

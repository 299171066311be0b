package renderer

import (
	"bytes"
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/hogwarts-cloud/virtualize/internal/models"
)

const (
	TemplateExtension = ".xml.tmpl"
	DomainTemplate    = "domain"
	NetworkTemplate   = "network"
)

var ErrRender = errors.New("failed to render definition")

// RenderError means a value the definition needs was never resolved. It
// points at a builder defect and is never recovered from.
type RenderError struct {
	Resource string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrRender, e.Resource, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

//go:embed templates/*.xml.tmpl
var templatesFS embed.FS

var templates = template.Must(
	template.New("").
		Option("missingkey=error").
		Funcs(template.FuncMap{"defined": defined, "escape": escape}).
		ParseFS(templatesFS, "templates/*"+TemplateExtension),
)

type Config struct {
	CloudInitISO string
}

// Renderer serializes resolved specs into libvirt XML. Output depends only on
// its input and the configuration.
type Renderer struct {
	cloudInitISO string
}

func (r *Renderer) RenderNetwork(network *models.NetworkSpec) (string, error) {
	return execute(NetworkTemplate, network.Name, networkData(network))
}

func (r *Renderer) RenderHost(host *models.HostSpec) (string, error) {
	return execute(DomainTemplate, host.Hostname, r.hostData(host))
}

func execute(name, resource string, data map[string]any) (string, error) {
	buf := &bytes.Buffer{}
	if err := templates.ExecuteTemplate(buf, name+TemplateExtension, data); err != nil {
		return "", &RenderError{Resource: resource, Err: err}
	}

	return buf.String(), nil
}

func networkData(network *models.NetworkSpec) map[string]any {
	data := map[string]any{}
	put(data, "name", network.Name)
	put(data, "uuid", network.UUID)
	put(data, "mac", network.MAC)
	put(data, "bridge_name", network.BridgeName)

	if network.DHCP != nil {
		hosts := make([]map[string]any, 0, len(network.DHCP.Hosts))
		for _, lease := range network.DHCP.Hosts {
			host := map[string]any{}
			put(host, "ip", lease.IP)
			put(host, "mac", lease.MAC)
			put(host, "name", lease.Name)
			hosts = append(hosts, host)
		}

		dhcp := map[string]any{"hosts": hosts}
		put(dhcp, "address", network.DHCP.Address)
		put(dhcp, "netmask", network.DHCP.Netmask)
		data["dhcp"] = dhcp
	}

	return data
}

func (r *Renderer) hostData(host *models.HostSpec) map[string]any {
	data := map[string]any{
		"memory":         host.Memory,
		"use_cloud_init": host.UseCloudInit,
	}
	put(data, "hostname", host.Hostname)
	put(data, "uuid", host.UUID)

	if host.UseCloudInit {
		put(data, "cloud_init_iso", r.cloudInitISO)
	}

	if host.Serial != "" || host.ProductName != "" {
		sysinfo := map[string]any{}
		put(sysinfo, "serial", host.Serial)
		put(sysinfo, "product", host.ProductName)
		data["sysinfo"] = sysinfo
	}

	disks := make([]map[string]any, 0, len(host.Disks))
	for _, disk := range host.Disks {
		entry := map[string]any{}
		put(entry, "name", disk.Name)
		put(entry, "path", disk.Path)
		disks = append(disks, entry)
	}
	data["disks"] = disks

	nics := make([]map[string]any, 0, len(host.Nics))
	for _, nic := range host.Nics {
		entry := map[string]any{}
		put(entry, "name", nic.Name)
		put(entry, "mac", nic.MAC)
		put(entry, "network_name", nic.Network)
		nics = append(nics, entry)
	}
	data["nics"] = nics

	return data
}

// put leaves unresolved values out so that the template fails on them.
func put(data map[string]any, key, value string) {
	if value == "" {
		return
	}

	data[key] = value
}

func defined(data map[string]any, key string) bool {
	_, ok := data[key]
	return ok
}

func escape(value string) (string, error) {
	buf := &strings.Builder{}
	if err := xml.EscapeText(buf, []byte(value)); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func New(cfg Config) *Renderer {
	return &Renderer{cloudInitISO: cfg.CloudInitISO}
}

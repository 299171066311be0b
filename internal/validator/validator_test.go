package validator

import (
	"testing"

	"github.com/hogwarts-cloud/virtualize/internal/models"
	"github.com/hogwarts-cloud/virtualize/internal/network"
	"github.com/stretchr/testify/assert"
)

var testConfig = Config{
	ReservedNetwork:  "sps_default",
	BootstrapProfile: "install-server",
}

func document(networks, hosts map[string]models.Definition, order ...string) models.Document {
	doc := models.Document{
		Networks: models.NewDefinitions(),
		Hosts:    models.NewDefinitions(),
	}

	for _, name := range order {
		if definition, ok := networks[name]; ok {
			doc.Networks.Set(name, definition)
		}
		if definition, ok := hosts[name]; ok {
			doc.Hosts.Set(name, definition)
		}
	}

	return doc
}

func Test_Validate(t *testing.T) {
	validHost := models.Definition{
		"memory": 2097152,
		"disks": []any{
			map[string]any{"name": "sda", "size": "20G"},
			map[string]any{"name": "sdb", "size": "512M", "clone_from": "/var/lib/libvirt/images/base.qcow2"},
		},
		"nics": []any{
			map[string]any{"name": "eth0", "mac": "52:54:00:00:00:01"},
		},
	}

	validNetwork := models.Definition{
		"bridge_name": "virbr10",
		"dhcp": map[string]any{
			"address": "192.168.100.1",
			"netmask": "255.255.255.0",
			"hosts": []any{
				map[string]any{"ip": "192.168.100.10", "mac": "52:54:00:00:10:10", "name": "router"},
			},
		},
	}

	testCases := []struct {
		name     string
		document models.Document
		wantErr  bool
		err      error
	}{
		{
			name:     "valid",
			document: document(map[string]models.Definition{"lab": validNetwork}, map[string]models.Definition{"web1": validHost}, "lab", "web1"),
		},
		{
			name:     "empty document",
			document: models.Document{},
		},
		{
			name:     "sparse host",
			document: document(nil, map[string]models.Definition{"db1": {"nics": []any{}}}, "db1"),
		},
		{
			name: "fractional disk size",
			document: document(nil, map[string]models.Definition{"web1": {
				"disks": []any{map[string]any{"name": "sda", "size": "1.5T"}},
			}}, "web1"),
		},
		{
			name: "install-server disks are not checked",
			document: document(nil, map[string]models.Definition{"installer": {
				"profile": "install-server",
				"disks": []any{
					map[string]any{"name": "sda", "size": "lots", "clone_from": "images/base.qcow2"},
					map[string]any{"name": "sda"},
				},
			}}, "installer"),
		},
		{
			name: "install-server malformed disks are not checked",
			document: document(nil, map[string]models.Definition{"installer": {
				"profile": "install-server",
				"disks":   "none",
				"nics":    nil,
			}}, "installer"),
		},
		{
			name: "install-server operator nics are checked",
			document: document(nil, map[string]models.Definition{"installer": {
				"profile": "install-server",
				"nics":    []any{map[string]any{"name": "eth0", "mac": "52:54:00"}},
			}}, "installer"),
			wantErr: true,
			err:     ErrInvalidMAC,
		},
		{
			name: "nic on declared and reserved networks",
			document: document(
				map[string]models.Definition{"lab": {}},
				map[string]models.Definition{"web1": {
					"nics": []any{
						map[string]any{"name": "eth0", "network": "lab"},
						map[string]any{"name": "eth1", "network": "sps_default"},
						map[string]any{"name": "eth2", "network": ""},
					},
				}},
				"lab", "web1",
			),
		},
		{
			name: "nic on unknown network",
			document: document(nil, map[string]models.Definition{"web1": {
				"nics": []any{map[string]any{"name": "eth0", "network": "storage"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrUnknownNetwork,
		},
		{
			name: "duplicated mac with different case",
			document: document(nil, map[string]models.Definition{
				"web1": {"nics": []any{map[string]any{"name": "eth0", "mac": "52:54:00:AA:BB:CC"}}},
				"web2": {"nics": []any{map[string]any{"name": "eth0", "mac": "52:54:00:aa:bb:cc"}}},
			}, "web1", "web2"),
			wantErr: true,
			err:     ErrDuplicatedMAC,
		},
		{
			name:     "invalid host name",
			document: document(nil, map[string]models.Definition{"web 1": validHost}, "web 1"),
			wantErr:  true,
			err:      ErrInvalidName,
		},
		{
			name:     "host name too big",
			document: document(nil, map[string]models.Definition{"h234567890123456789012345678901234567890123456789012345678901234": validHost}, "h234567890123456789012345678901234567890123456789012345678901234"),
			wantErr:  true,
			err:      ErrNameTooBig,
		},
		{
			name:     "invalid uuid",
			document: document(nil, map[string]models.Definition{"web1": {"uuid": "not-a-uuid"}}, "web1"),
			wantErr:  true,
			err:      ErrInvalidUUID,
		},
		{
			name:     "non positive memory",
			document: document(nil, map[string]models.Definition{"web1": {"memory": 0}}, "web1"),
			wantErr:  true,
			err:      ErrNonPositiveMemory,
		},
		{
			name:     "malformed memory",
			document: document(nil, map[string]models.Definition{"web1": {"memory": "plenty"}}, "web1"),
			wantErr:  true,
			err:      ErrMalformedDefinition,
		},
		{
			name: "invalid disk size",
			document: document(nil, map[string]models.Definition{"web1": {
				"disks": []any{map[string]any{"name": "sda", "size": "20 gigs"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrInvalidDiskSize,
		},
		{
			name: "empty disk name",
			document: document(nil, map[string]models.Definition{"web1": {
				"disks": []any{map[string]any{"size": "20G"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrEmptyDiskName,
		},
		{
			name: "duplicated disk name",
			document: document(nil, map[string]models.Definition{"web1": {
				"disks": []any{
					map[string]any{"name": "sda", "size": "20G"},
					map[string]any{"name": "sda", "size": "10G"},
				},
			}}, "web1"),
			wantErr: true,
			err:     ErrDuplicatedDiskName,
		},
		{
			name: "relative clone_from",
			document: document(nil, map[string]models.Definition{"web1": {
				"disks": []any{map[string]any{"name": "sda", "size": "20G", "clone_from": "base.qcow2"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrRelativeCloneFrom,
		},
		{
			name: "invalid nic mac",
			document: document(nil, map[string]models.Definition{"web1": {
				"nics": []any{map[string]any{"name": "eth0", "mac": "52:54:00"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrInvalidMAC,
		},
		{
			name: "empty nic name",
			document: document(nil, map[string]models.Definition{"web1": {
				"nics": []any{map[string]any{"mac": "52:54:00:00:00:01"}},
			}}, "web1"),
			wantErr: true,
			err:     ErrEmptyNicName,
		},
		{
			name: "duplicated mac across hosts",
			document: document(nil, map[string]models.Definition{
				"web1": validHost,
				"web2": validHost,
			}, "web1", "web2"),
			wantErr: true,
			err:     ErrDuplicatedMAC,
		},
		{
			name: "duplicated mac between network and host",
			document: document(
				map[string]models.Definition{"lab": {"mac": "52:54:00:00:00:01"}},
				map[string]models.Definition{"web1": validHost},
				"lab", "web1",
			),
			wantErr: true,
			err:     ErrDuplicatedMAC,
		},
		{
			name: "duplicated bridge name",
			document: document(map[string]models.Definition{
				"lab":     {"bridge_name": "virbr10"},
				"storage": {"bridge_name": "virbr10"},
			}, nil, "lab", "storage"),
			wantErr: true,
			err:     ErrDuplicatedBridgeName,
		},
		{
			name:     "bridge name too long",
			document: document(map[string]models.Definition{"lab": {"bridge_name": "virbr1234567890123"}}, nil, "lab"),
			wantErr:  true,
			err:      ErrInvalidBridgeName,
		},
		{
			name:     "invalid network mac",
			document: document(map[string]models.Definition{"lab": {"mac": "zz:zz"}}, nil, "lab"),
			wantErr:  true,
			err:      ErrInvalidMAC,
		},
		{
			name: "lease outside subnet",
			document: document(map[string]models.Definition{"lab": {
				"dhcp": map[string]any{
					"address": "192.168.100.1",
					"netmask": "255.255.255.0",
					"hosts": []any{
						map[string]any{"ip": "10.0.0.5", "mac": "52:54:00:00:10:10", "name": "router"},
					},
				},
			}}, nil, "lab"),
			wantErr: true,
			err:     network.ErrLeaseOutsideSubnet,
		},
		{
			name:     "malformed dhcp",
			document: document(map[string]models.Definition{"lab": {"dhcp": "yes"}}, nil, "lab"),
			wantErr:  true,
			err:      ErrMalformedDefinition,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := New(testConfig).Validate(tc.document)
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

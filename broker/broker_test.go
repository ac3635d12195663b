package broker_test

import (
	"time"

	"code.cloudfoundry.org/lager/lagertest"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/cloudfoundry-community/mockbroker"
	"github.com/cloudfoundry-community/mockbroker/broker"
	"github.com/cloudfoundry-community/mockbroker/catalog"
	"github.com/cloudfoundry-community/mockbroker/operations"
	"github.com/cloudfoundry-community/mockbroker/registry"
)

func fixtureServices() []mockbroker.Service {
	return []mockbroker.Service{
		{
			ID:       "service-1",
			Name:     "fake-service",
			Bindable: true,
			Plans: []mockbroker.ServicePlan{
				{ID: "plan-sync", Name: "sync"},
				{ID: "plan-async", Name: "deferred", Asynchronous: true},
				{
					ID:   "plan-schema",
					Name: "strict",
					Schemas: &mockbroker.ServiceSchemas{
						Instance: mockbroker.ServiceInstanceSchema{
							Create: mockbroker.Schema{Parameters: map[string]interface{}{
								"$schema":  "http://json-schema.org/draft-04/schema#",
								"type":     "object",
								"required": []interface{}{"name"},
							}},
							Update: mockbroker.Schema{Parameters: map[string]interface{}{
								"$schema":  "http://json-schema.org/draft-04/schema#",
								"type":     "object",
								"required": []interface{}{"version"},
							}},
						},
						Binding: mockbroker.ServiceBindingSchema{
							Create: mockbroker.Schema{Parameters: map[string]interface{}{
								"$schema":  "http://json-schema.org/draft-04/schema#",
								"type":     "object",
								"required": []interface{}{"app_key"},
							}},
						},
					},
				},
			},
		},
		{
			ID:       "service-syslog",
			Name:     "log-service",
			Bindable: true,
			Requires: []mockbroker.RequiredPermission{mockbroker.PermissionSyslogDrain},
			Plans:    []mockbroker.ServicePlan{{ID: "plan-log", Name: "drain"}},
		},
		{
			ID:       "service-volume",
			Name:     "volume-service",
			Bindable: true,
			Requires: []mockbroker.RequiredPermission{mockbroker.PermissionVolumeMount},
			Plans:    []mockbroker.ServicePlan{{ID: "plan-vol", Name: "shared"}},
		},
		{
			ID:       "service-both",
			Name:     "greedy-service",
			Bindable: true,
			Requires: []mockbroker.RequiredPermission{
				mockbroker.PermissionVolumeMount,
				mockbroker.PermissionSyslogDrain,
			},
			Plans: []mockbroker.ServicePlan{{ID: "plan-both", Name: "everything"}},
		},
	}
}

var _ = Describe("Broker", func() {
	var (
		store         *catalog.Store
		instances     *registry.Registry
		tracker       *operations.Tracker
		serviceBroker *broker.Broker
		now           time.Time
	)

	advance := func(d time.Duration) {
		now = now.Add(d)
	}

	provisionDetails := func(serviceID, planID string) mockbroker.ProvisionDetails {
		return mockbroker.ProvisionDetails{
			ServiceID:        serviceID,
			PlanID:           planID,
			OrganizationGUID: "org-guid",
			SpaceGUID:        "space-guid",
			APIVersion:       "2.14",
		}
	}

	BeforeEach(func() {
		now = time.Date(2023, time.March, 14, 9, 0, 0, 0, time.UTC)
		store = catalog.NewStore()
		Expect(store.Replace(fixtureServices())).To(Succeed())
		instances = registry.New()
		tracker = operations.NewWithClock(func() time.Time { return now })
		serviceBroker = broker.New(store, instances, tracker, lagertest.NewTestLogger("broker-test"), broker.Config{
			DefaultDelay: time.Second,
			BaseURL:      "http://broker.example.com",
		})
	})

	Describe("Services", func() {
		It("returns the catalog", func() {
			Expect(serviceBroker.Services()).To(HaveLen(4))
		})
	})

	Describe("Provision", func() {
		It("provisions synchronously with a generated metrics URL", func() {
			spec, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.IsAsync).To(BeFalse())
			Expect(spec.MetricsURL).To(HavePrefix("http://broker.example.com/metrics/"))
			Expect(spec.DashboardURL).To(BeEmpty())

			instance, found := instances.Get("i-1")
			Expect(found).To(BeTrue())
			Expect(instance.ServiceID).To(Equal("service-1"))
			Expect(instance.OrganizationGUID).To(Equal("org-guid"))
			Expect(instance.APIVersion).To(Equal("2.14"))
		})

		It("requires the service id", func() {
			details := provisionDetails("", "plan-sync")
			_, err := serviceBroker.Provision("i-1", details)
			Expect(err).To(Equal(mockbroker.ErrServiceIDMissing))
		})

		It("requires the plan id", func() {
			details := provisionDetails("service-1", "")
			_, err := serviceBroker.Provision("i-1", details)
			Expect(err).To(Equal(mockbroker.ErrPlanIDMissing))
		})

		It("rejects a service id not in the catalog", func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("nope", "plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrServiceNotInCatalog))
		})

		It("rejects a plan id not in the catalog", func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "nope"))
			Expect(err).To(Equal(mockbroker.ErrPlanNotInCatalog))
		})

		It("conflicts on an instance id already provisioned", func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())

			_, err = serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrInstanceAlreadyExists))
		})

		Context("when the plan carries a create schema", func() {
			It("rejects parameters missing a required field and creates nothing", func() {
				details := provisionDetails("service-1", "plan-schema")
				details.Parameters = map[string]interface{}{"unrelated": true}

				_, err := serviceBroker.Provision("i-1", details)
				Expect(err).To(BeAssignableToTypeOf(&mockbroker.FailureResponse{}))
				Expect(err.Error()).To(ContainSubstring("failed schema validation"))

				_, found := instances.Get("i-1")
				Expect(found).To(BeFalse())
			})

			It("accepts parameters satisfying the schema", func() {
				details := provisionDetails("service-1", "plan-schema")
				details.Parameters = map[string]interface{}{"name": "my-db"}

				_, err := serviceBroker.Provision("i-1", details)
				Expect(err).NotTo(HaveOccurred())
			})
		})

		Context("when the plan is asynchronous", func() {
			It("accepts with a dashboard URL instead of completing", func() {
				spec, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-async"))
				Expect(err).NotTo(HaveOccurred())
				Expect(spec.IsAsync).To(BeTrue())
				Expect(spec.DashboardURL).To(Equal("http://broker.example.com/dashboard/i-1"))
				Expect(spec.MetricsURL).To(BeEmpty())
			})

			It("reports in progress until the default delay elapses", func() {
				_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-async"))
				Expect(err).NotTo(HaveOccurred())

				operation, err := serviceBroker.LastOperation("i-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(operation.State).To(Equal(mockbroker.InProgress))

				advance(time.Second)

				operation, err = serviceBroker.LastOperation("i-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(operation.State).To(Equal(mockbroker.Succeeded))
			})

			It("honours a numeric delay parameter, in seconds", func() {
				details := provisionDetails("service-1", "plan-async")
				details.Parameters = map[string]interface{}{"delay": float64(5)}
				_, err := serviceBroker.Provision("i-1", details)
				Expect(err).NotTo(HaveOccurred())

				advance(4 * time.Second)
				operation, _ := serviceBroker.LastOperation("i-1")
				Expect(operation.State).To(Equal(mockbroker.InProgress))

				advance(time.Second)
				operation, _ = serviceBroker.LastOperation("i-1")
				Expect(operation.State).To(Equal(mockbroker.Succeeded))
			})

			It("falls back to the default delay for a non-numeric delay parameter", func() {
				details := provisionDetails("service-1", "plan-async")
				details.Parameters = map[string]interface{}{"delay": "soon"}
				_, err := serviceBroker.Provision("i-1", details)
				Expect(err).NotTo(HaveOccurred())

				advance(time.Second)
				operation, _ := serviceBroker.LastOperation("i-1")
				Expect(operation.State).To(Equal(mockbroker.Succeeded))
			})

			It("completes on the first poll for a zero delay", func() {
				details := provisionDetails("service-1", "plan-async")
				details.Parameters = map[string]interface{}{"delay": float64(0)}
				_, err := serviceBroker.Provision("i-1", details)
				Expect(err).NotTo(HaveOccurred())

				operation, _ := serviceBroker.LastOperation("i-1")
				Expect(operation.State).To(Equal(mockbroker.Succeeded))
			})
		})
	})

	Describe("Update", func() {
		updateDetails := func(planID string) mockbroker.UpdateDetails {
			return mockbroker.UpdateDetails{
				ServiceID:  "service-1",
				PlanID:     planID,
				APIVersion: "2.14",
			}
		}

		BeforeEach(func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("mutates the record in place", func() {
			spec, err := serviceBroker.Update("i-1", updateDetails("plan-schema"))
			Expect(err).To(HaveOccurred()) // update schema requires "version"

			details := updateDetails("plan-schema")
			details.Parameters = map[string]interface{}{"version": "2"}
			spec, err = serviceBroker.Update("i-1", details)
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.IsAsync).To(BeFalse())

			instance, _ := instances.Get("i-1")
			Expect(instance.PlanID).To(Equal("plan-schema"))
			Expect(instance.Parameters).To(HaveKeyWithValue("version", "2"))
			Expect(instance.UpdatedAt).NotTo(BeZero())
		})

		It("fails for an absent instance", func() {
			_, err := serviceBroker.Update("nope", updateDetails("plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrInstanceDoesNotExist))
		})

		It("rejects an unresolvable plan", func() {
			_, err := serviceBroker.Update("i-1", updateDetails("nope"))
			Expect(err).To(Equal(mockbroker.ErrPlanNotInCatalog))
		})

		It("branches asynchronously for an asynchronous plan", func() {
			spec, err := serviceBroker.Update("i-1", updateDetails("plan-async"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.IsAsync).To(BeTrue())

			operation, _ := serviceBroker.LastOperation("i-1")
			Expect(operation.State).To(Equal(mockbroker.InProgress))
			Expect(operation.Description).To(Equal("update in progress"))

			advance(time.Second)
			operation, _ = serviceBroker.LastOperation("i-1")
			Expect(operation.State).To(Equal(mockbroker.Succeeded))
		})

		It("rejects an update while a provision operation is pending", func() {
			_, err := serviceBroker.Provision("i-2", provisionDetails("service-1", "plan-async"))
			Expect(err).NotTo(HaveOccurred())

			_, err = serviceBroker.Update("i-2", updateDetails("plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrOperationInProgress))
		})
	})

	Describe("Deprovision", func() {
		deprovisionDetails := mockbroker.DeprovisionDetails{
			ServiceID: "service-1",
			PlanID:    "plan-sync",
		}

		BeforeEach(func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes the instance and its bindings", func() {
			_, err := serviceBroker.Bind("i-1", "b-1", mockbroker.BindDetails{
				ServiceID: "service-1", PlanID: "plan-sync",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(serviceBroker.Deprovision("i-1", deprovisionDetails)).To(Succeed())

			_, found := instances.Get("i-1")
			Expect(found).To(BeFalse())
		})

		It("never errors the second time", func() {
			Expect(serviceBroker.Deprovision("i-1", deprovisionDetails)).To(Succeed())
			Expect(serviceBroker.Deprovision("i-1", deprovisionDetails)).To(Succeed())
		})

		It("requires the service and plan ids for auditing", func() {
			err := serviceBroker.Deprovision("i-1", mockbroker.DeprovisionDetails{PlanID: "plan-sync"})
			Expect(err).To(Equal(mockbroker.ErrServiceIDMissing))

			err = serviceBroker.Deprovision("i-1", mockbroker.DeprovisionDetails{ServiceID: "service-1"})
			Expect(err).To(Equal(mockbroker.ErrPlanIDMissing))
		})

		It("tolerates catalog drift: an unresolvable plan does not block deletion", func() {
			err := serviceBroker.Deprovision("i-1", mockbroker.DeprovisionDetails{
				ServiceID: "service-gone",
				PlanID:    "plan-gone",
			})
			Expect(err).NotTo(HaveOccurred())

			_, found := instances.Get("i-1")
			Expect(found).To(BeFalse())
		})

		It("clears any pending operation for the instance", func() {
			_, err := serviceBroker.Provision("i-2", provisionDetails("service-1", "plan-async"))
			Expect(err).NotTo(HaveOccurred())

			Expect(serviceBroker.Deprovision("i-2", deprovisionDetails)).To(Succeed())

			operation, _ := serviceBroker.LastOperation("i-2")
			Expect(operation.State).To(Equal(mockbroker.Succeeded))
			Expect(operation.Description).To(BeEmpty())
		})
	})

	Describe("Bind", func() {
		bindDetails := func(serviceID, planID string) mockbroker.BindDetails {
			return mockbroker.BindDetails{
				ServiceID: serviceID,
				PlanID:    planID,
				AppGUID:   "app-guid",
			}
		}

		provisionFor := func(instanceID, serviceID, planID string) {
			_, err := serviceBroker.Provision(instanceID, provisionDetails(serviceID, planID))
			Expect(err).NotTo(HaveOccurred())
		}

		It("fails for an absent instance", func() {
			_, err := serviceBroker.Bind("nope", "b-1", bindDetails("service-1", "plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrInstanceDoesNotExist))
		})

		It("rejects an unresolvable service or plan", func() {
			provisionFor("i-1", "service-1", "plan-sync")

			_, err := serviceBroker.Bind("i-1", "b-1", bindDetails("nope", "plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrServiceNotInCatalog))

			_, err = serviceBroker.Bind("i-1", "b-1", bindDetails("service-1", "nope"))
			Expect(err).To(Equal(mockbroker.ErrPlanNotInCatalog))
		})

		It("stores the binding on the instance", func() {
			provisionFor("i-1", "service-1", "plan-sync")

			_, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())

			binding, found := instances.Binding("i-1", "b-1")
			Expect(found).To(BeTrue())
			Expect(binding.AppGUID).To(Equal("app-guid"))
		})

		It("conflicts on a binding id already taken on the instance", func() {
			provisionFor("i-1", "service-1", "plan-sync")

			_, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())

			_, err = serviceBroker.Bind("i-1", "b-1", bindDetails("service-1", "plan-sync"))
			Expect(err).To(Equal(mockbroker.ErrBindingAlreadyExists))
		})

		It("gates binding parameters on the plan's binding schema", func() {
			create := provisionDetails("service-1", "plan-schema")
			create.Parameters = map[string]interface{}{"name": "my-db"}
			_, err := serviceBroker.Provision("i-1", create)
			Expect(err).NotTo(HaveOccurred())

			details := bindDetails("service-1", "plan-schema")
			_, err = serviceBroker.Bind("i-1", "b-1", details)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed schema validation"))

			details.Parameters = map[string]interface{}{"app_key": "k"}
			_, err = serviceBroker.Bind("i-1", "b-1", details)
			Expect(err).NotTo(HaveOccurred())
		})

		Describe("payload shapes", func() {
			It("yields opaque credentials for a service with no requirement tags", func() {
				provisionFor("i-1", "service-1", "plan-sync")

				binding, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-1", "plan-sync"))
				Expect(err).NotTo(HaveOccurred())

				credentials, ok := binding.Credentials.(mockbroker.BasicCredentials)
				Expect(ok).To(BeTrue())
				Expect(credentials.Username).NotTo(BeEmpty())
				Expect(credentials.Password).NotTo(BeEmpty())
				Expect(binding.SyslogDrainURL).To(BeEmpty())
				Expect(binding.VolumeMounts).To(BeEmpty())
			})

			It("yields a drain URL for a syslog_drain service", func() {
				provisionFor("i-1", "service-syslog", "plan-log")

				binding, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-syslog", "plan-log"))
				Expect(err).NotTo(HaveOccurred())
				Expect(binding.SyslogDrainURL).To(Equal("syslog://i-1.drain.example.com:514"))
				Expect(binding.Credentials).To(BeNil())
			})

			It("yields a volume descriptor for a volume_mount service", func() {
				provisionFor("i-1", "service-volume", "plan-vol")

				binding, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-volume", "plan-vol"))
				Expect(err).NotTo(HaveOccurred())
				Expect(binding.VolumeMounts).To(HaveLen(1))

				mount := binding.VolumeMounts[0]
				Expect(mount.Driver).To(Equal("mockdriver"))
				Expect(mount.ContainerDir).To(Equal("/var/vcap/data/b-1"))
				Expect(mount.Mode).To(Equal("rw"))
				Expect(mount.DeviceType).To(Equal("shared"))
				Expect(mount.Device.VolumeId).NotTo(BeEmpty())
			})

			It("prefers syslog_drain when a service requires both", func() {
				provisionFor("i-1", "service-both", "plan-both")

				binding, err := serviceBroker.Bind("i-1", "b-1", bindDetails("service-both", "plan-both"))
				Expect(err).NotTo(HaveOccurred())
				Expect(binding.SyslogDrainURL).NotTo(BeEmpty())
				Expect(binding.VolumeMounts).To(BeEmpty())
			})
		})
	})

	Describe("Unbind", func() {
		unbindDetails := mockbroker.UnbindDetails{ServiceID: "service-1", PlanID: "plan-sync"}

		It("requires the service and plan ids", func() {
			err := serviceBroker.Unbind("i-1", "b-1", mockbroker.UnbindDetails{PlanID: "plan-sync"})
			Expect(err).To(Equal(mockbroker.ErrServiceIDMissing))
		})

		It("never errors the second time", func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())
			_, err = serviceBroker.Bind("i-1", "b-1", mockbroker.BindDetails{ServiceID: "service-1", PlanID: "plan-sync"})
			Expect(err).NotTo(HaveOccurred())

			Expect(serviceBroker.Unbind("i-1", "b-1", unbindDetails)).To(Succeed())
			Expect(serviceBroker.Unbind("i-1", "b-1", unbindDetails)).To(Succeed())
		})

		It("absorbs an absent instance", func() {
			Expect(serviceBroker.Unbind("never-there", "b-1", unbindDetails)).To(Succeed())
		})
	})

	Describe("LastOperation", func() {
		It("reports succeeded for an id with nothing tracked, even a fabricated one", func() {
			operation, err := serviceBroker.LastOperation("made-up")
			Expect(err).NotTo(HaveOccurred())
			Expect(operation.State).To(Equal(mockbroker.Succeeded))
		})
	})

	Describe("ReplaceCatalog", func() {
		It("round-trips through Services", func() {
			replacement := []mockbroker.Service{{
				ID:    "service-new",
				Name:  "brand-new",
				Plans: []mockbroker.ServicePlan{{ID: "plan-new", Name: "only"}},
			}}
			Expect(serviceBroker.ReplaceCatalog(replacement)).To(Succeed())
			Expect(serviceBroker.Services()).To(Equal(replacement))
		})

		It("keeps the prior catalog on a malformed replacement", func() {
			err := serviceBroker.ReplaceCatalog([]mockbroker.Service{{Name: "no-id"}})
			Expect(err).To(HaveOccurred())
			Expect(serviceBroker.Services()).To(HaveLen(4))
		})
	})

	Describe("Reset", func() {
		It("clears instances, pending operations and snapshots but keeps the catalog", func() {
			_, err := serviceBroker.Provision("i-1", provisionDetails("service-1", "plan-async"))
			Expect(err).NotTo(HaveOccurred())
			serviceBroker.RecordRequest(mockbroker.RequestSnapshot{Method: "PUT", Path: "/v2/service_instances/i-1"})
			serviceBroker.RecordResponse(mockbroker.ResponseSnapshot{Status: 202})

			serviceBroker.Reset()

			_, found := instances.Get("i-1")
			Expect(found).To(BeFalse())
			operation, _ := serviceBroker.LastOperation("i-1")
			Expect(operation.State).To(Equal(mockbroker.Succeeded))
			Expect(serviceBroker.LastRequest()).To(BeNil())
			Expect(serviceBroker.LastResponse()).To(BeNil())
			Expect(serviceBroker.Services()).To(HaveLen(4))
		})
	})

	Describe("introspection snapshots", func() {
		It("reflects the last recorded pair", func() {
			serviceBroker.RecordRequest(mockbroker.RequestSnapshot{Method: "GET", Path: "/v2/catalog"})
			serviceBroker.RecordRequest(mockbroker.RequestSnapshot{Method: "PUT", Path: "/v2/service_instances/i-1"})
			serviceBroker.RecordResponse(mockbroker.ResponseSnapshot{Status: 201, Body: "{}"})

			Expect(serviceBroker.LastRequest().Method).To(Equal("PUT"))
			Expect(serviceBroker.LastResponse().Status).To(Equal(201))
		})
	})

	Describe("end-to-end scenario", func() {
		It("walks the whole sync lifecycle", func() {
			spec, err := serviceBroker.Provision("i1", provisionDetails("service-1", "plan-sync"))
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.MetricsURL).NotTo(BeEmpty())

			binding, err := serviceBroker.Bind("i1", "b1", mockbroker.BindDetails{
				ServiceID: "service-1", PlanID: "plan-sync",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(binding.Credentials).NotTo(BeNil())

			Expect(serviceBroker.Unbind("i1", "b1", mockbroker.UnbindDetails{
				ServiceID: "service-1", PlanID: "plan-sync",
			})).To(Succeed())

			Expect(serviceBroker.Deprovision("i1", mockbroker.DeprovisionDetails{
				ServiceID: "service-1", PlanID: "plan-sync",
			})).To(Succeed())

			operation, err := serviceBroker.LastOperation("i1")
			Expect(err).NotTo(HaveOccurred())
			Expect(operation.State).To(Equal(mockbroker.Succeeded))
		})
	})
})

/*
 * Copyright (c) "GraphBolt"
 * GraphBolt Project [https://github.com/graphbolt]
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package graphbolt

import (
	"context"
	"net"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

var _ = Describe("NewDriver", func() {
	noopCodec := func(conn net.Conn, major, minor int) wire.Codec { return nil }
	withCodec := func(config *Config) { config.Codec = noopCodec }

	Context("schemes", func() {
		It("creates an unencrypted direct driver for bolt://", func() {
			driver, err := NewDriver("bolt://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.IsEncrypted()).To(BeFalse())
			Expect(driver.Target().Scheme).To(Equal("bolt"))
		})

		It("creates an encrypted direct driver for bolt+s://", func() {
			driver, err := NewDriver("bolt+s://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.IsEncrypted()).To(BeTrue())
		})

		It("creates a routing driver for graphbolt://", func() {
			driver, err := NewDriver("graphbolt://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.IsEncrypted()).To(BeFalse())
		})

		It("creates an encrypted routing driver without verification for graphbolt+ssc://", func() {
			driver, err := NewDriver("graphbolt+ssc://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.IsEncrypted()).To(BeTrue())
		})

		It("rejects unknown schemes", func() {
			_, err := NewDriver("http://host:7687", NoAuth(), withCodec)
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})

		It("rejects URLs without a host", func() {
			_, err := NewDriver("bolt://", NoAuth(), withCodec)
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})

		It("rejects URLs with multiple hosts", func() {
			_, err := NewDriver("graphbolt://hostA:7687,hostB:7687", NoAuth(), withCodec)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("routing context", func() {
		It("accepts query parameters on routing URLs", func() {
			driver, err := NewDriver("graphbolt://host:7687?region=eu&policy=fast", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
		})

		It("ignores query parameters on direct URLs instead of failing", func() {
			driver, err := NewDriver("bolt://host:7687?region=eu", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
		})

		It("rejects duplicated routing context keys", func() {
			_, err := NewDriver("graphbolt://host:7687?region=eu&region=us", NoAuth(), withCodec)
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})

		It("rejects the reserved address key", func() {
			_, err := NewDriver("graphbolt://host:7687?address=elsewhere", NoAuth(), withCodec)
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})
	})

	Context("configuration", func() {
		It("requires a codec factory", func() {
			_, err := NewDriver("bolt://host:7687", NoAuth())
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})

		It("applies configurers in order", func() {
			var observed int
			_, err := NewDriver("bolt://host:7687", NoAuth(), withCodec,
				func(config *Config) { config.MaxConnectionPoolSize = 7 },
				func(config *Config) { observed = config.MaxConnectionPoolSize })
			Expect(err).NotTo(HaveOccurred())
			Expect(observed).To(Equal(7))
		})
	})

	Context("lifecycle", func() {
		It("closes idempotently", func() {
			driver, err := NewDriver("bolt://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Close(context.Background())).To(Succeed())
			Expect(driver.Close(context.Background())).To(Succeed())
		})

		It("hands out errored sessions after close", func() {
			driver, err := NewDriver("bolt://host:7687", NoAuth(), withCodec)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Close(context.Background())).To(Succeed())

			session := driver.NewSession(context.Background(), SessionConfig{})
			_, err = session.Run(context.Background(), "RETURN 1", nil)
			Expect(err).To(HaveOccurred())
			Expect(IsUsageError(err)).To(BeTrue())
		})
	})
})

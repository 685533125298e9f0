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
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/graphbolt/graphbolt-go-driver/graphbolt/wire"
)

var _ = Describe("Config", func() {
	noopCodec := func(conn net.Conn, major, minor int) wire.Codec { return nil }

	validConfig := func() *Config {
		config := defaultConfig()
		config.Codec = noopCodec
		return config
	}

	Context("defaults", func() {
		It("carries the documented values", func() {
			config := defaultConfig()
			Expect(config.MaxTransactionRetryTime).To(Equal(30 * time.Second))
			Expect(config.MaxConnectionPoolSize).To(Equal(100))
			Expect(config.MaxConnectionLifetime).To(Equal(1 * time.Hour))
			Expect(config.ConnectionAcquisitionTimeout).To(Equal(1 * time.Minute))
			Expect(config.SocketConnectTimeout).To(Equal(5 * time.Second))
			Expect(config.SocketKeepalive).To(BeTrue())
			Expect(config.FetchSize).To(Equal(1000))
		})
	})

	Context("validation", func() {
		It("rejects a missing codec factory", func() {
			config := defaultConfig()
			Expect(validateAndNormaliseConfig(config)).To(HaveOccurred())
		})

		It("rejects a zero pool size", func() {
			config := validConfig()
			config.MaxConnectionPoolSize = 0
			Expect(validateAndNormaliseConfig(config)).To(HaveOccurred())
		})

		It("rejects a negative pool size", func() {
			config := validConfig()
			config.MaxConnectionPoolSize = -3
			Expect(validateAndNormaliseConfig(config)).To(HaveOccurred())
		})

		It("disables connection lifetime enforcement for non-positive values", func() {
			config := validConfig()
			config.MaxConnectionLifetime = -1
			Expect(validateAndNormaliseConfig(config)).To(Succeed())
			Expect(config.MaxConnectionLifetime).To(BeNumerically(">", time.Hour))
		})

		It("normalises the default fetch size", func() {
			config := validConfig()
			config.FetchSize = FetchDefault
			Expect(validateAndNormaliseConfig(config)).To(Succeed())
			Expect(config.FetchSize).To(Equal(1000))
		})

		It("keeps FetchAll as is", func() {
			config := validConfig()
			config.FetchSize = FetchAll
			Expect(validateAndNormaliseConfig(config)).To(Succeed())
			Expect(config.FetchSize).To(Equal(FetchAll))
		})

		It("replaces a nil logger with the void logger", func() {
			config := validConfig()
			config.Log = nil
			Expect(validateAndNormaliseConfig(config)).To(Succeed())
			Expect(config.Log).NotTo(BeNil())
		})
	})
})

// Package factory 提供服务商适配器的集中式工厂，
// 通过标签映射创建适配器实例，打破 llm 包与各 provider 子包之间的循环依赖。
package factory

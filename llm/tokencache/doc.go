/*
包 tokencache 提供短期访问令牌（如百度 OAuth access_token、智谱 JWT）的缓存。

[Cache] 由调用方显式创建并注入适配器，语义只有 Get / Set / Expired 三个操作，
外加组合了三者的 [Cache.Token]。缓存项保存绝对过期时间，时钟可替换。

并发未命中时不做合并，每个调用各自换取令牌，后写覆盖先写。

存储实现：

  - [MemoryStore]：进程内，默认
  - [RedisStore]：go-redis，多实例共享
  - [SQLStore]：gorm + SQLite，重启后保留
*/
package tokencache

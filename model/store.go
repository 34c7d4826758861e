package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinerec/cinerec/core"
)

// Options 指定四个启动工件的位置，以及可选的推理后端替换。
type Options struct {
	CatalogPath    string // 片库 CSV
	SimilarityPath string // 相似度矩阵（CSIM 二进制）
	SVDPath        string // 协同过滤模型（JSON）
	ClassifierPath string // 情绪分类器（JSON）

	// Classifier 非空时替代 ClassifierPath（如 service.HTTPClient 外置推理）。
	Classifier core.Classifier

	// Predictor 非空时替代 SVDPath。
	Predictor core.RatingPredictor
}

// Store 独占持有四个模型工件与片库，其他组件只通过读访问器使用它们。
//
// 生命周期：构造时为空壳，首次 EnsureLoaded 时一次性加载，进程存活期间
// 不再变化。四个工件作为整体原子可见：并发冷启动时只有一个加载者执行，
// 其余调用方阻塞等待同一个结果；任何组件都不会观察到半加载状态。
//
// 任一工件缺失或损坏都是致命错误：由 EnsureLoaded 返回给启动方，
// 不会在单次请求路径上被吞掉。
type Store struct {
	opts Options

	once sync.Once
	err  error

	catalog    *Catalog
	sim        *SimilarityMatrix
	predictor  core.RatingPredictor
	classifier core.Classifier
}

// NewStore 构造空壳 Store；真正的加载发生在首次 EnsureLoaded。
func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// EnsureLoaded 幂等加载全部工件。重复调用是 no-op，返回首次加载的结果。
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.load(ctx)
	})
	if s.err != nil {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeBadArtifact, s.err.Error())
	}
	return nil
}

func (s *Store) load(_ context.Context) error {
	catalog, err := LoadCatalog(s.opts.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	sim, err := OpenSimilarityMatrix(s.opts.SimilarityPath)
	if err != nil {
		return fmt.Errorf("load similarity matrix: %w", err)
	}
	if sim.Dim() != catalog.Len() {
		sim.Close()
		return fmt.Errorf("similarity matrix dim %d does not match catalog size %d", sim.Dim(), catalog.Len())
	}

	predictor := s.opts.Predictor
	if predictor == nil {
		svd, err := LoadSVDModel(s.opts.SVDPath)
		if err != nil {
			sim.Close()
			return fmt.Errorf("load collaborative model: %w", err)
		}
		predictor = svd
	}

	classifier := s.opts.Classifier
	if classifier == nil {
		nb, err := LoadNBClassifier(s.opts.ClassifierPath)
		if err != nil {
			sim.Close()
			return fmt.Errorf("load emotion classifier: %w", err)
		}
		classifier = nb
	}

	// 全部成功后才发布，保证原子可见性。
	s.catalog = catalog
	s.sim = sim
	s.predictor = predictor
	s.classifier = classifier
	return nil
}

// Catalog 返回片库。调用前必须 EnsureLoaded 成功。
func (s *Store) Catalog() *Catalog { return s.catalog }

// Len 返回片库行数。
func (s *Store) Len() int {
	if s.catalog == nil {
		return 0
	}
	return s.catalog.Len()
}

// Movie 按行号取影片。
func (s *Store) Movie(row int) *core.Movie { return s.catalog.Movie(row) }

// ByID 按影片 id 取影片，未找到返回 nil。
func (s *Store) ByID(id int64) *core.Movie { return s.catalog.ByID(id) }

// RowIndexForTitle 按小写标题查行号。
func (s *Store) RowIndexForTitle(title string) (int, bool) {
	return s.catalog.RowIndexForTitle(title)
}

// SimilarityRow 读取片库第 i 行的相似度向量（按需换页）。
func (s *Store) SimilarityRow(i int) ([]float32, error) {
	return s.sim.Row(i)
}

// PredictRating 预测用户对影片的评分。
func (s *Store) PredictRating(ctx context.Context, userID, itemID int64) (float64, error) {
	return s.predictor.PredictRating(ctx, userID, itemID)
}

// PredictEmotion 对已清洗文本做情绪分类。
func (s *Store) PredictEmotion(ctx context.Context, cleaned string) (string, error) {
	return s.classifier.PredictLabel(ctx, cleaned)
}

// Close 释放文件句柄等资源（进程退出时调用）。
func (s *Store) Close() error {
	if s.sim != nil {
		return s.sim.Close()
	}
	return nil
}
